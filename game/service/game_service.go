package service

import (
	"context"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/storage"
)

// GameService defines all game-related operations
type GameService interface {
	// Game management
	CreateGame(ctx context.Context, configName string) (*SessionInfo, error)
	GetGame(ctx context.Context, gameID string) (*SessionInfo, error)
	ListGames(ctx context.Context) ([]*SessionInfo, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Turns
	Roll(ctx context.Context, gameID string) (*driver.TurnResult, error)
	Buy(ctx context.Context, gameID string) (*driver.TurnResult, error)
	Skip(ctx context.Context, gameID string) (*driver.TurnResult, error)
	PlayAI(ctx context.Context, gameID string) (*driver.TurnResult, error)

	// Game state
	GetGameState(ctx context.Context, gameID string) (*engine.GameState, error)
	GetHistory(ctx context.Context, gameID string, opts HistoryOptions) (*HistoryResponse, error)
	GetBoard(ctx context.Context) []board.Tile

	// Snapshots
	SaveGame(ctx context.Context, gameID string) (*storage.Record, error)
	SaveSnapshot(ctx context.Context, state engine.GameState) (*storage.Record, error)
	LoadSave(ctx context.Context, saveID string) (*storage.Record, error)
	ListSaves(ctx context.Context) ([]*storage.Record, error)
	RestoreSave(ctx context.Context, saveID string) (*SessionInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	// Save persists a session; the caller holds its lock
	Save(id string) error
}

// ConfigManager handles setup preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Notifier is told about every turn event together with the state right
// after it. It runs while the session lock is held.
type Notifier func(gameID string, event driver.Event, state *engine.GameState)
