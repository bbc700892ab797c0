package messages

import (
	"encoding/json"
	"fmt"
)

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 1 << 20
)

// MessageType identifies the payload carried by a Message.
type MessageType string

// Client -> server message types
const (
	MessageTypeClientJoinRoom   MessageType = "joinRoom"
	MessageTypeClientQueryRooms MessageType = "queryRooms"
	MessageTypeClientUpdate     MessageType = "update"
)

// Server -> client message types
const (
	MessageTypeServerWelcome           MessageType = "welcome"
	MessageTypeServerConnectionAdded   MessageType = "connectionAdded"
	MessageTypeServerConnectionRemoved MessageType = "connectionRemoved"
	MessageTypeServerBagUpdate         MessageType = "bagUpdate"
	MessageTypeServerUpdateRooms       MessageType = "updateRooms"
	MessageTypeServerUpdate            MessageType = "update"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload and wraps it in a Message of the given type.
// A nil payload produces a message without a payload.
func NewMessage(t MessageType, payload interface{}) (*Message, error) {
	msg := &Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", t, err)
	}
	msg.Payload = b
	return msg, nil
}

// Connection is a player's membership in a room.
type Connection struct {
	ID       string `json:"id"`
	Num      int    `json:"num"`
	Username string `json:"username"`
	Host     bool   `json:"host"`
}

// ClientJoinRoom is sent by a client to join (or create) a room.
type ClientJoinRoom struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ServerWelcome tells a freshly connected client its connection id.
type ServerWelcome struct {
	ID string `json:"id"`
}

// RoomInfo is one row of the lobby listing.
type RoomInfo struct {
	RoomName   string `json:"roomname"`
	Capacity   string `json:"capacity"`
	Occupancy  int    `json:"occupancy"`
	MaxPlayers int    `json:"maxPlayers"`
	Host       string `json:"host"`
	State      string `json:"state"`
}

// RoomUpdate is the payload of a client update message. On the wire it is the
// positional array [room, envelope] with an optional trailing true marking the
// update as volatile.
type RoomUpdate struct {
	Room     string
	Update   json.RawMessage
	Volatile bool
}

func (u RoomUpdate) MarshalJSON() ([]byte, error) {
	update := u.Update
	if len(update) == 0 {
		update = json.RawMessage("null")
	}
	args := []interface{}{u.Room, update}
	if u.Volatile {
		args = append(args, true)
	}
	return json.Marshal(args)
}

func (u *RoomUpdate) UnmarshalJSON(b []byte) error {
	var args []json.RawMessage
	if err := json.Unmarshal(b, &args); err != nil {
		return fmt.Errorf("failed to unmarshal room update: %v", err)
	}
	if len(args) < 2 {
		return fmt.Errorf("room update needs at least 2 elements, got %d", len(args))
	}
	if err := json.Unmarshal(args[0], &u.Room); err != nil {
		return fmt.Errorf("failed to unmarshal room update room: %v", err)
	}
	u.Update = append(json.RawMessage(nil), args[1]...)
	u.Volatile = false
	if len(args) > 2 {
		if err := json.Unmarshal(args[2], &u.Volatile); err != nil {
			return fmt.Errorf("failed to unmarshal room update volatile flag: %v", err)
		}
	}
	return nil
}
