package repositories

import (
	"context"
	"fmt"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/repositories/migrations"
	"github.com/cbodonnell/suika/pkg/repositories/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and runs migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	if err := runMigrations(ctx, migrations.Postgres, "postgres", func(ctx context.Context, q string) error {
		_, err := pool.Exec(ctx, q)
		return err
	}); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveRoomEvent(ctx context.Context, event *models.RoomEvent) error {
	q := `
	INSERT INTO room_events (room, type, connection_id, username, occupancy, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id;
	`
	err := r.pool.QueryRow(ctx, q, event.Room, event.Type, event.ConnectionID, event.Username, event.Occupancy, event.Timestamp).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert room event: %v", err)
	}

	return nil
}

func (r *PostgresRepository) ListRoomEvents(ctx context.Context, room string, limit int) ([]*models.RoomEvent, error) {
	q := `
	SELECT id, room, type, connection_id, username, occupancy, timestamp
	FROM room_events WHERE room = $1 ORDER BY id DESC LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, q, room, normalizeLimit(limit))
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
