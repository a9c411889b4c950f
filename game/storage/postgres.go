package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wricardo/monopoly-game/game/engine"
)

const createGamesTable = `CREATE TABLE IF NOT EXISTS games (
	id         SERIAL PRIMARY KEY,
	state      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps snapshots in the games table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and creates the games table if missing
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createGamesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create games table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Save inserts a row and returns its serial id
func (s *PostgresStore) Save(ctx context.Context, state engine.GameState) (*Record, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	var (
		id        int64
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx,
		"INSERT INTO games (state) VALUES ($1) RETURNING id, created_at", data,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert save: %w", err)
	}

	return &Record{
		ID:        strconv.FormatInt(id, 10),
		State:     state.Clone(),
		CreatedAt: createdAt,
	}, nil
}

// Load fetches one row. Non-numeric ids are reported as not found.
func (s *PostgresStore) Load(ctx context.Context, id string) (*Record, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var (
		data      []byte
		createdAt time.Time
	)
	err = s.pool.QueryRow(ctx, "SELECT state, created_at FROM games WHERE id = $1", n).Scan(&data, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query save: %w", err)
	}

	return decodeRow(n, data, createdAt)
}

// List returns every row in id order
func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, state, created_at FROM games ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query saves: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var (
			id        int64
			data      []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		rec, err := decodeRow(id, data, createdAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saves: %w", err)
	}
	return records, nil
}

func decodeRow(id int64, data []byte, createdAt time.Time) (*Record, error) {
	var state engine.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal save %d: %w", id, err)
	}
	return &Record{ID: strconv.FormatInt(id, 10), State: state, CreatedAt: createdAt}, nil
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
