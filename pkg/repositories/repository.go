package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/cbodonnell/suika/pkg/repositories/models"
)

const (
	// DefaultHistoryLimit caps ListRoomEvents when no limit is given
	DefaultHistoryLimit = 50
	// MaxHistoryLimit is the largest limit ListRoomEvents honours
	MaxHistoryLimit = 500
)

type Repository interface {
	Close(ctx context.Context) error
	// SaveRoomEvent stores an event and sets its ID.
	SaveRoomEvent(ctx context.Context, event *models.RoomEvent) error
	// ListRoomEvents returns the newest events of a room first. It returns
	// ErrNotFound if the room has no history.
	ListRoomEvents(ctx context.Context, room string, limit int) ([]*models.RoomEvent, error)
}

// NewRepository opens the repository named by a database URL:
// sqlite://<path>, postgres:// or postgresql://<dsn>, or memory://.
func NewRepository(ctx context.Context, databaseURL string) (Repository, error) {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return nil, fmt.Errorf("database URL %q has no scheme", databaseURL)
	}

	switch scheme {
	case "sqlite", "sqlite3":
		path := rest
		if path == "" {
			return nil, fmt.Errorf("sqlite database URL has no path")
		}
		return NewSQLiteRepository(ctx, path)
	case "postgres", "postgresql":
		return NewPostgresRepository(ctx, databaseURL)
	case "memory":
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme: %q", scheme)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
