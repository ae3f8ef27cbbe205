package registry

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"sync"

	"github.com/dolevoper/envolve/domain"
)

const (
	alphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	maxRetries = 10
)

// Registry maps room ids to the connection id of the room's admin. A room
// exists exactly as long as its admin connection is open; teardown removes the
// entry before any member is disconnected, so Exists is authoritative for
// joins racing an admin departure.
type Registry struct {
	idLen int
	mu    sync.RWMutex
	rooms map[string]string
}

func New(idLen int) *Registry {
	if idLen <= 0 {
		idLen = 5
	}
	return &Registry{idLen: idLen, rooms: make(map[string]string)}
}

// Create generates a fresh room id and records adminID as its admin. The
// collision check and insert happen under one lock so concurrent creations
// can never be handed the same id.
func (r *Registry) Create(adminID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < maxRetries; i++ {
		id, err := randomID(r.idLen)
		if err != nil {
			return "", err
		}
		if _, taken := r.rooms[id]; taken {
			slog.Warn("room id collision", "roomId", id)
			continue
		}
		r.rooms[id] = adminID
		return id, nil
	}
	return "", domain.ErrRoomIDSpaceExhausted
}

func (r *Registry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Admin returns the admin connection id for a room, if the room is live.
func (r *Registry) Admin(roomID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.rooms[roomID]
	return admin, ok
}

// Close removes a room. Returns false if the room was already gone.
func (r *Registry) Close(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; !ok {
		return false
	}
	delete(r.rooms, roomID)
	return true
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func randomID(n int) (string, error) {
	alphaLen := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
