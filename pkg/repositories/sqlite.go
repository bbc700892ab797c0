package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/cbodonnell/suika/pkg/repositories/migrations"
	"github.com/cbodonnell/suika/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
	// sqlite allows one writer at a time
	writeLock sync.Mutex
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(ctx, migrations.SQLite, "sqlite", func(ctx context.Context, q string) error {
		_, err := db.ExecContext(ctx, q)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

// runMigrations executes every .sql file under dir in name order.
func runMigrations(ctx context.Context, fsys fs.FS, dir string, exec func(context.Context, string) error) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		migrationPath := dir + "/" + entry.Name()
		migration, err := fs.ReadFile(fsys, migrationPath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if err := exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveRoomEvent(ctx context.Context, event *models.RoomEvent) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	q := `
	INSERT INTO room_events (room, type, connection_id, username, occupancy, timestamp)
	VALUES (?, ?, ?, ?, ?, ?);
	`
	res, err := r.db.ExecContext(ctx, q, event.Room, event.Type, event.ConnectionID, event.Username, event.Occupancy, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert room event: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get room event id: %v", err)
	}
	event.ID = id

	return nil
}

func (r *SQLiteRepository) ListRoomEvents(ctx context.Context, room string, limit int) ([]*models.RoomEvent, error) {
	q := `
	SELECT id, room, type, connection_id, username, occupancy, timestamp
	FROM room_events WHERE room = ? ORDER BY id DESC LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, room, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query room events: %v", err)
	}
	defer rows.Close()

	events := make([]*models.RoomEvent, 0)
	for rows.Next() {
		event := &models.RoomEvent{}
		if err := rows.Scan(&event.ID, &event.Room, &event.Type, &event.ConnectionID, &event.Username, &event.Occupancy, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan room event: %v", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room events: %v", err)
	}
	if len(events) == 0 {
		return nil, &ErrNotFound{}
	}

	return events, nil
}
