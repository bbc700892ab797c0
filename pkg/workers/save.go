package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/repositories"
	"github.com/cbodonnell/suika/pkg/repositories/models"
	"github.com/cbodonnell/suika/pkg/rooms"
)

const (
	// RoomEventChannelSize is the buffer between the directory and the save worker
	RoomEventChannelSize = 256
	// DefaultSaveTimeout bounds a single repository write
	DefaultSaveTimeout = 5 * time.Second
)

type SaveRoomEventWorker struct {
	repository    repositories.Repository
	roomEventChan <-chan rooms.Event
	timeout       time.Duration
}

type NewSaveRoomEventWorkerOptions struct {
	Repository    repositories.Repository
	RoomEventChan <-chan rooms.Event
	Timeout       time.Duration
}

// NewSaveRoomEventWorker creates a new SaveRoomEventWorker.
// The worker writes room lifecycle events published by the directory
// to the repository.
func NewSaveRoomEventWorker(opts NewSaveRoomEventWorkerOptions) *SaveRoomEventWorker {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	return &SaveRoomEventWorker{
		repository:    opts.Repository,
		roomEventChan: opts.RoomEventChan,
		timeout:       timeout,
	}
}

// Start saves events until ctx is done, then drains what is already buffered.
func (w *SaveRoomEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case event := <-w.roomEventChan:
			w.saveRoomEvent(ctx, event)
		}
	}
}

func (w *SaveRoomEventWorker) drain() {
	for {
		select {
		case event := <-w.roomEventChan:
			w.saveRoomEvent(context.Background(), event)
		default:
			return
		}
	}
}

func (w *SaveRoomEventWorker) saveRoomEvent(ctx context.Context, event rooms.Event) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	roomEvent := &models.RoomEvent{
		Room:         event.Room,
		Type:         string(event.Type),
		ConnectionID: event.ConnectionID,
		Username:     event.Username,
		Occupancy:    event.Occupancy,
		Timestamp:    event.Timestamp.UnixMilli(),
	}
	if err := w.repository.SaveRoomEvent(ctx, roomEvent); err != nil {
		log.Error("Failed to save %s event for room %s: %v", event.Type, event.Room, err)
		return
	}
	log.Trace("Saved %s event %d for room %s", event.Type, roomEvent.ID, event.Room)
}
