package hub

import (
	"log/slog"
	"sync"

	"github.com/dolevoper/envolve/domain"
	"github.com/dolevoper/envolve/metrics"
)

type room struct {
	sessions map[string]domain.Session
	mu       sync.RWMutex
}

// Hub groups live sessions by room id and delivers frames to them. It knows
// nothing about admins or relay policy; that lives in lifecycle and relay.
type Hub struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

func (h *Hub) Add(s domain.Session) {
	h.mu.Lock()
	r, exists := h.rooms[s.Room()]
	if !exists {
		r = &room{sessions: make(map[string]domain.Session)}
		h.rooms[s.Room()] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.sessions[s.ID()] = s
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveConnections.Inc()
	slog.Info("session added", "room", s.Room(), "clientId", s.ID(), "userName", s.UserName(), "clients", count)
}

func (h *Hub) Remove(s domain.Session) {
	h.mu.RLock()
	r, exists := h.rooms[s.Room()]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.Lock()
	if _, present := r.sessions[s.ID()]; !present {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, s.ID())
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveConnections.Dec()
	slog.Info("session removed", "room", s.Room(), "clientId", s.ID(), "clients", count)

	if count == 0 {
		h.mu.Lock()
		delete(h.rooms, s.Room())
		h.mu.Unlock()
		slog.Debug("room group removed", "room", s.Room())
	}
}

// Broadcast delivers data to every session in the room except excludeID.
// Delivery is best-effort; a session whose buffer is full just misses the frame.
func (h *Hub) Broadcast(roomID string, data []byte, excludeID string) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, s := range r.sessions {
		if id == excludeID {
			continue
		}
		if err := s.Send(data); err != nil {
			metrics.ForwardsDropped.Inc()
			slog.Debug("broadcast send failed", "room", roomID, "clientId", id, "error", err)
		}
	}
}

// SendTo unicasts data to one session in the room.
func (h *Hub) SendTo(roomID, connID string, data []byte) error {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return domain.ErrSessionNotFound
	}

	r.mu.RLock()
	s, ok := r.sessions[connID]
	r.mu.RUnlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	return s.Send(data)
}

// Members returns a snapshot of the room's sessions. Safe to iterate while
// sessions disconnect concurrently.
func (h *Hub) Members(roomID string) []domain.Session {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.sessions)
		r.mu.RUnlock()
	}
	return rooms, clients
}
