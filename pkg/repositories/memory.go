package repositories

import (
	"context"
	"sync"

	"github.com/cbodonnell/suika/pkg/repositories/models"
)

// MemoryRepository keeps room history in process memory.
type MemoryRepository struct {
	lock   sync.RWMutex
	nextID int64
	events map[string][]models.RoomEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		events: make(map[string][]models.RoomEvent),
	}
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) SaveRoomEvent(ctx context.Context, event *models.RoomEvent) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.nextID++
	event.ID = r.nextID
	r.events[event.Room] = append(r.events[event.Room], *event)
	return nil
}

func (r *MemoryRepository) ListRoomEvents(ctx context.Context, room string, limit int) ([]*models.RoomEvent, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	stored := r.events[room]
	if len(stored) == 0 {
		return nil, &ErrNotFound{}
	}
	limit = normalizeLimit(limit)
	events := make([]*models.RoomEvent, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(events) < limit; i-- {
		event := stored[i]
		events = append(events, &event)
	}
	return events, nil
}
