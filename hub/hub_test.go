package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSession struct {
	id       string
	userName string
	room     string
	admin    bool
	received [][]byte
	closed   bool
	mu       sync.Mutex
	sendErr  error
}

func (m *mockSession) ID() string       { return m.id }
func (m *mockSession) UserName() string { return m.userName }
func (m *mockSession) Room() string     { return m.room }
func (m *mockSession) Admin() bool      { return m.admin }

func (m *mockSession) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockSession) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSession) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

func TestHub_Broadcast(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*Hub) ([]*mockSession, *mockSession)
		wantReceived map[string]int
	}{
		{
			name: "broadcast to room members excludes sender",
			setup: func(h *Hub) ([]*mockSession, *mockSession) {
				sender := &mockSession{id: "sender", room: "room1"}
				recv1 := &mockSession{id: "recv1", room: "room1"}
				recv2 := &mockSession{id: "recv2", room: "room1"}
				h.Add(sender)
				h.Add(recv1)
				h.Add(recv2)
				return []*mockSession{recv1, recv2}, sender
			},
			wantReceived: map[string]int{"recv1": 1, "recv2": 1},
		},
		{
			name: "no cross-room broadcast",
			setup: func(h *Hub) ([]*mockSession, *mockSession) {
				sender := &mockSession{id: "sender", room: "room1"}
				recv := &mockSession{id: "recv1", room: "room2"}
				h.Add(sender)
				h.Add(recv)
				return []*mockSession{recv}, sender
			},
			wantReceived: map[string]int{"recv1": 0},
		},
		{
			name: "single session in room",
			setup: func(h *Hub) ([]*mockSession, *mockSession) {
				sender := &mockSession{id: "sender", room: "room1"}
				h.Add(sender)
				return []*mockSession{}, sender
			},
			wantReceived: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			receivers, sender := tt.setup(h)

			h.Broadcast(sender.Room(), []byte("test message"), sender.ID())

			for _, r := range receivers {
				expected := tt.wantReceived[r.ID()]
				assert.Len(t, r.getReceived(), expected, "receiver %s", r.ID())
			}
			assert.Empty(t, sender.getReceived(), "sender must not receive its own broadcast")
		})
	}
}

func TestHub_SendTo(t *testing.T) {
	h := New()
	target := &mockSession{id: "target", room: "r1"}
	other := &mockSession{id: "other", room: "r1"}
	h.Add(target)
	h.Add(other)

	err := h.SendTo("r1", "target", []byte("hello"))
	require.NoError(t, err)

	assert.Len(t, target.getReceived(), 1)
	assert.Empty(t, other.getReceived())
}

func TestHub_SendTo_Missing(t *testing.T) {
	h := New()
	h.Add(&mockSession{id: "c1", room: "r1"})

	assert.Error(t, h.SendTo("r1", "nope", []byte("x")))
	assert.Error(t, h.SendTo("no-room", "c1", []byte("x")))
}

func TestHub_Members_Snapshot(t *testing.T) {
	h := New()
	a := &mockSession{id: "a", room: "r1"}
	b := &mockSession{id: "b", room: "r1"}
	h.Add(a)
	h.Add(b)

	members := h.Members("r1")
	require.Len(t, members, 2)

	// Mutating the hub does not affect an already-taken snapshot.
	h.Remove(b)
	assert.Len(t, members, 2)
	assert.Len(t, h.Members("r1"), 1)

	assert.Nil(t, h.Members("unknown"))
}

func TestHub_Stats(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*Hub)
		wantRooms   int
		wantClients int
	}{
		{
			name:        "empty hub",
			setup:       func(h *Hub) {},
			wantRooms:   0,
			wantClients: 0,
		},
		{
			name: "one room one session",
			setup: func(h *Hub) {
				h.Add(&mockSession{id: "c1", room: "r1"})
			},
			wantRooms:   1,
			wantClients: 1,
		},
		{
			name: "multiple rooms",
			setup: func(h *Hub) {
				h.Add(&mockSession{id: "c1", room: "r1"})
				h.Add(&mockSession{id: "c2", room: "r1"})
				h.Add(&mockSession{id: "c3", room: "r2"})
			},
			wantRooms:   2,
			wantClients: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			tt.setup(h)

			rooms, clients := h.Stats()

			assert.Equal(t, tt.wantRooms, rooms)
			assert.Equal(t, tt.wantClients, clients)
		})
	}
}

func TestHub_RoomCleanup(t *testing.T) {
	h := New()
	s := &mockSession{id: "c1", room: "r1"}

	h.Add(s)
	rooms, _ := h.Stats()
	require.Equal(t, 1, rooms)

	h.Remove(s)
	rooms, clients := h.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, clients)

	// Removing twice is harmless.
	h.Remove(s)
}

func TestHub_Broadcast_SendErrorSkipped(t *testing.T) {
	h := New()
	sender := &mockSession{id: "sender", room: "r1"}
	bad := &mockSession{id: "bad", room: "r1", sendErr: errors.New("buffer full")}
	good := &mockSession{id: "good", room: "r1"}
	h.Add(sender)
	h.Add(bad)
	h.Add(good)

	h.Broadcast("r1", []byte("m"), "sender")

	assert.Len(t, good.getReceived(), 1)
	rooms, clients := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 3, clients)
}
