package lifecycle

import (
	"log/slog"

	"github.com/dolevoper/envolve/domain"
	"github.com/dolevoper/envolve/metrics"
)

// Placement is the outcome of the registry phase of a join: the room the
// connection will live in and whether it is that room's admin.
type Placement struct {
	RoomID string
	Admin  bool
}

type managingPayload struct {
	RoomID string `json:"roomId"`
}

type userPayload struct {
	UserName string `json:"userName"`
}

// Controller drives every connection through its lifecycle: room assignment
// and join notifications on open, departure notifications or full room
// teardown on close.
type Controller struct {
	registry domain.Registry
	roster   domain.Roster

	// CreateUnknownRooms restores the legacy behavior of silently creating a
	// room when a join names an id the registry does not know. Off by default:
	// such a room would have an admin that never asked to manage it.
	createUnknownRooms bool
}

func NewController(registry domain.Registry, roster domain.Roster, createUnknownRooms bool) *Controller {
	return &Controller{
		registry:           registry,
		roster:             roster,
		createUnknownRooms: createUnknownRooms,
	}
}

// Assign resolves the requested room before the transport upgrade. An empty
// room id means the caller wants a fresh room and becomes its admin. An
// unknown id is rejected unless the create-unknown policy is on.
func (c *Controller) Assign(connID, requestedRoom string) (Placement, error) {
	if requestedRoom == "" {
		roomID, err := c.registry.Create(connID)
		if err != nil {
			return Placement{}, err
		}
		metrics.RoomsCreated.Inc()
		slog.Info("room created", "room", roomID, "clientId", connID)
		return Placement{RoomID: roomID, Admin: true}, nil
	}

	if !c.registry.Exists(requestedRoom) {
		if !c.createUnknownRooms {
			metrics.JoinsRejected.Inc()
			slog.Info("join rejected", "room", requestedRoom, "clientId", connID)
			return Placement{}, domain.ErrRoomNotFound
		}
		roomID, err := c.registry.Create(connID)
		if err != nil {
			return Placement{}, err
		}
		metrics.RoomsCreated.Inc()
		slog.Info("unknown room, created fresh", "requested", requestedRoom, "room", roomID, "clientId", connID)
		return Placement{RoomID: roomID, Admin: true}, nil
	}

	return Placement{RoomID: requestedRoom, Admin: false}, nil
}

// Abort rolls back a placement whose connection never materialized, so the
// registry never holds a room without a live admin.
func (c *Controller) Abort(p Placement) {
	if p.Admin {
		c.registry.Close(p.RoomID)
		slog.Info("room rolled back", "room", p.RoomID)
	}
}

// Join completes the handshake for a placed session: it enters the room group
// and exactly one notification goes out before any relayed traffic can flow.
// The admin learns its room id; everyone else is announced to the admin.
func (c *Controller) Join(s domain.Session) error {
	c.roster.Add(s)

	if s.Admin() {
		data, err := domain.Frame(domain.EventManaging, managingPayload{RoomID: s.Room()})
		if err != nil {
			return err
		}
		if err := s.Send(data); err != nil {
			slog.Debug("managing notification failed", "clientId", s.ID(), "error", err)
		}
		slog.Info("admin joined", "room", s.Room(), "clientId", s.ID(), "userName", s.UserName())
		return nil
	}

	// The admin may have vanished between Assign and Add. Teardown closes the
	// registry entry before snapshotting members, so if the room is still
	// registered here this session is covered by any later cascade.
	adminID, ok := c.registry.Admin(s.Room())
	if !ok {
		c.roster.Remove(s)
		metrics.JoinsRejected.Inc()
		slog.Info("join rejected, room closed mid-handshake", "room", s.Room(), "clientId", s.ID())
		return domain.ErrRoomNotFound
	}

	data, err := domain.Frame(domain.EventNewUser, userPayload{UserName: s.UserName()})
	if err != nil {
		return err
	}
	if err := c.roster.SendTo(s.Room(), adminID, data); err != nil {
		slog.Debug("new user notification failed", "room", s.Room(), "clientId", s.ID(), "error", err)
	}
	slog.Info("user joined", "room", s.Room(), "clientId", s.ID(), "userName", s.UserName())
	return nil
}

// Leave handles a closed connection. An admin's departure tears the room
// down: the registry entry goes first, then every remaining member from a
// snapshot is told to disconnect. Disconnecting a member that already closed
// is a no-op. A participant's departure just notifies the admin, if one is
// still there to hear it.
func (c *Controller) Leave(s domain.Session) {
	if s.Admin() {
		c.registry.Close(s.Room())
		members := c.roster.Members(s.Room())
		c.roster.Remove(s)

		for _, m := range members {
			if m.ID() == s.ID() {
				continue
			}
			if err := m.Disconnect(); err != nil {
				slog.Debug("cascade disconnect", "room", s.Room(), "clientId", m.ID(), "error", err)
			}
		}
		slog.Info("admin left, room closed", "room", s.Room(), "clientId", s.ID(), "userName", s.UserName(), "evicted", len(members)-1)
		return
	}

	c.roster.Remove(s)

	adminID, ok := c.registry.Admin(s.Room())
	if !ok {
		// Room already torn down, nobody to notify.
		slog.Debug("user left closed room", "room", s.Room(), "clientId", s.ID())
		return
	}

	data, err := domain.Frame(domain.EventUserLeft, userPayload{UserName: s.UserName()})
	if err != nil {
		return
	}
	if err := c.roster.SendTo(s.Room(), adminID, data); err != nil {
		slog.Debug("user left notification failed", "room", s.Room(), "clientId", s.ID(), "error", err)
	}
	slog.Info("user left", "room", s.Room(), "clientId", s.ID(), "userName", s.UserName())
}
