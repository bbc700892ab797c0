package workers

import (
	"context"
	"reflect"
	"time"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/cbodonnell/suika/pkg/network"
	"github.com/cbodonnell/suika/pkg/rooms"
)

// BroadcastRoomListWorker pushes the lobby listing to every client that is
// not in a room whenever the listing changes.
type BroadcastRoomListWorker struct {
	clientManager *network.ClientManager
	directory     *rooms.Directory
	emitter       rooms.Emitter
	interval      time.Duration
	last          []messages.RoomInfo
}

type NewBroadcastRoomListWorkerOptions struct {
	ClientManager *network.ClientManager
	Directory     *rooms.Directory
	Emitter       rooms.Emitter
	Interval      time.Duration
}

func NewBroadcastRoomListWorker(opts NewBroadcastRoomListWorkerOptions) *BroadcastRoomListWorker {
	return &BroadcastRoomListWorker{
		clientManager: opts.ClientManager,
		directory:     opts.Directory,
		emitter:       opts.Emitter,
		interval:      opts.Interval,
	}
}

func (w *BroadcastRoomListWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.broadcast()
		}
	}
}

// broadcast returns the number of clients the listing was sent to.
func (w *BroadcastRoomListWorker) broadcast() int {
	listing := w.directory.ListRooms()
	if w.last != nil && reflect.DeepEqual(listing, w.last) {
		return 0
	}
	w.last = listing

	msg, err := messages.NewMessage(messages.MessageTypeServerUpdateRooms, listing)
	if err != nil {
		log.Error("Failed to create room list message: %v", err)
		return 0
	}

	sent := 0
	for _, client := range w.clientManager.GetClients() {
		if _, inRoom := w.directory.RoomOf(client.ID); inRoom {
			continue
		}
		if err := w.emitter.Emit(client.ID, msg, true); err != nil {
			log.Debug("Failed to push room list to %s: %v", client.ID, err)
			continue
		}
		sent++
	}
	return sent
}
