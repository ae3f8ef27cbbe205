package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/dolevoper/envolve/domain"
	"github.com/dolevoper/envolve/metrics"
)

// Router forwards application frames between a room's admin and its
// participants. A participant's frame goes to the admin alone; the admin's
// frame goes to everyone else in the room. Frames are forwarded verbatim,
// payload untouched.
type Router struct {
	registry domain.Registry
	roster   domain.Roster
}

func NewRouter(registry domain.Registry, roster domain.Roster) *Router {
	return &Router{registry: registry, roster: roster}
}

func (r *Router) Handle(sender domain.Session, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid frame", "clientId", sender.ID(), "error", err)
		return
	}
	if env.Event == "" {
		slog.Warn("frame missing event", "clientId", sender.ID())
		return
	}
	if domain.Reserved(env.Event) {
		slog.Debug("reserved event from client dropped", "clientId", sender.ID(), "event", env.Event)
		return
	}

	if sender.Admin() {
		r.roster.Broadcast(sender.Room(), data, sender.ID())
		metrics.MessagesRelayed.Inc()
		return
	}

	adminID, ok := r.registry.Admin(sender.Room())
	if !ok {
		// Room already torn down; the sender is about to be disconnected.
		slog.Debug("no admin for room", "clientId", sender.ID(), "room", sender.Room())
		metrics.ForwardsDropped.Inc()
		return
	}
	if err := r.roster.SendTo(sender.Room(), adminID, data); err != nil {
		slog.Debug("forward to admin failed", "clientId", sender.ID(), "room", sender.Room(), "error", err)
		metrics.ForwardsDropped.Inc()
		return
	}
	metrics.MessagesRelayed.Inc()
}
