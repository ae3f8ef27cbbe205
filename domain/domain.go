package domain

import (
	"encoding/json"
	"errors"
)

// Framing events owned by the lifecycle controller. Everything else is
// application traffic and passes through the relay untouched.
const (
	EventManaging = "managing"
	EventNewUser  = "new user"
	EventUserLeft = "user left"
)

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomIDSpaceExhausted = errors.New("room id generation exhausted retries")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSendBufferFull       = errors.New("send buffer full")
)

// Envelope is the wire frame for every message: an event tag and an opaque
// payload. The relay decides the destination from the sender alone and never
// looks inside Payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reserved reports whether an event name belongs to the lifecycle framing
// vocabulary and must not be relayed on behalf of a client.
func Reserved(event string) bool {
	return event == EventManaging || event == EventNewUser || event == EventUserLeft
}

// Frame marshals an envelope for sending.
func Frame(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}

// Session is one connected client. Room and Admin are resolved once during the
// join handshake and never change for the life of the connection.
type Session interface {
	ID() string
	UserName() string
	Room() string
	Admin() bool
	Send(data []byte) error
	Disconnect() error
}

// Registry owns the set of live rooms and each room's admin connection id.
type Registry interface {
	Create(adminID string) (string, error)
	Exists(roomID string) bool
	Admin(roomID string) (string, bool)
	Close(roomID string) bool
}

// Roster groups sessions into rooms and delivers frames to them.
type Roster interface {
	Add(s Session)
	Remove(s Session)
	Broadcast(roomID string, data []byte, excludeID string)
	SendTo(roomID, connID string, data []byte) error
	Members(roomID string) []Session
	Stats() (rooms, clients int)
}

// MessageHandler consumes inbound frames from a session's read pump.
type MessageHandler interface {
	Handle(s Session, data []byte)
}
