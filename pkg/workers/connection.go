package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/cbodonnell/suika/pkg/network"
	"github.com/cbodonnell/suika/pkg/rooms"
)

type ConnectionEventWorker struct {
	clientEventChan <-chan network.ClientEvent
	directory       *rooms.Directory
}

type NewConnectionEventWorkerOptions struct {
	ClientEventChan <-chan network.ClientEvent
	Directory       *rooms.Directory
}

// NewConnectionEventWorker creates a new ConnectionEventWorker.
// The worker is the only goroutine that mutates the room directory. It
// processes connects, disconnects and client messages in the order the
// transport delivered them.
func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	return &ConnectionEventWorker{
		clientEventChan: opts.ClientEventChan,
		directory:       opts.Directory,
	}
}

func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.clientEventChan:
			w.handleEvent(event)
		}
	}
}

func (w *ConnectionEventWorker) handleEvent(event network.ClientEvent) {
	switch event.Type {
	case network.ClientEventTypeConnect:
		log.Debug("Client %s connected", event.ClientID)
	case network.ClientEventTypeDisconnect:
		w.directory.Disconnect(event.ClientID)
	case network.ClientEventTypeMessage:
		msg, ok := event.Data.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message from client %s", event.ClientID)
			return
		}
		if err := w.handleMessage(event.ClientID, msg); err != nil {
			log.Warn("Failed to handle %s message from client %s: %v", msg.Type, event.ClientID, err)
		}
	default:
		log.Error("Unknown client event type: %v", event.Type)
	}
}

func (w *ConnectionEventWorker) handleMessage(clientID string, msg *messages.Message) error {
	switch msg.Type {
	case messages.MessageTypeClientJoinRoom:
		join := &messages.ClientJoinRoom{}
		if err := json.Unmarshal(msg.Payload, join); err != nil {
			return fmt.Errorf("failed to unmarshal join room payload: %v", err)
		}
		return w.directory.Join(clientID, join.Room, join.Username)
	case messages.MessageTypeClientQueryRooms:
		return w.directory.SendRoomList(clientID)
	case messages.MessageTypeClientUpdate:
		update := &messages.RoomUpdate{}
		if err := json.Unmarshal(msg.Payload, update); err != nil {
			return fmt.Errorf("failed to unmarshal update payload: %v", err)
		}
		return w.directory.Relay(clientID, update.Room, update.Update, update.Volatile)
	default:
		return fmt.Errorf("unknown message type")
	}
}
