package rooms

import (
	"time"

	"github.com/cbodonnell/suika/pkg/log"
)

// EventType names a room lifecycle event.
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeJoined  EventType = "joined"
	EventTypeLeft    EventType = "left"
	EventTypeClosed  EventType = "closed"
)

// Event is a room lifecycle event.
type Event struct {
	Type         EventType
	Room         string
	ConnectionID string
	Username     string
	Occupancy    int
	Timestamp    time.Time
}

// publish must be called with the write lock held.
func (d *Directory) publish(t EventType, room *Room, connID, username string) {
	if d.events == nil {
		return
	}
	event := Event{
		Type:         t,
		Room:         room.Code,
		ConnectionID: connID,
		Username:     username,
		Occupancy:    len(room.Connections),
		Timestamp:    d.now(),
	}
	select {
	case d.events <- event:
	default:
		log.Warn("Room event channel is full, dropping %s event for room %s", t, room.Code)
	}
}
