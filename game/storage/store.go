package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/monopoly-game/game/engine"
)

var (
	ErrNotFound       = errors.New("save not found")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Record is one saved snapshot of a game
type Record struct {
	ID        string           `json:"id"`
	State     engine.GameState `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store keeps game snapshots. Saving the same state twice produces two
// records.
type Store interface {
	Save(ctx context.Context, state engine.GameState) (*Record, error)
	Load(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Close() error
}

// Backend names
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend
type Options struct {
	Backend     string
	Dir         string
	RedisURL    string
	DatabaseURL string
}

// Open returns the store for opts.Backend
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL)
	case BackendPostgres:
		return NewPostgresStore(ctx, opts.DatabaseURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
