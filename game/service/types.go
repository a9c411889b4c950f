package service

import (
	"errors"
	"sync"
	"time"

	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrSaveNotFound    = errors.New("save not found")
	ErrStorageDisabled = errors.New("snapshot storage is not configured")
	ErrInvalidState    = errors.New("invalid game state")
)

// MaxHistory bounds the number of turn events kept per session
const MaxHistory = 1000

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// HistoryOptions configures event history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn events
type HistoryResponse struct {
	Events      []driver.Event `json:"events"`
	TotalEvents int            `json:"total_events"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// ConfigInfo provides information about a setup preset
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for game creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	Players       int    `json:"players"`
	StartingMoney int    `json:"starting_money"`
	Salary        int    `json:"salary"`
}

// Session represents an active game. Engine, History, Roller and
// LastAccessedAt are guarded by the session lock.
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	Roller         driver.Roller
	CreatedAt      time.Time
	LastAccessedAt time.Time
	History        []driver.Event

	mu sync.Mutex
}

// Lock serialises commands on the session
func (s *Session) Lock() { s.mu.Lock() }

// TryLock reports whether the lock was free and is now held
func (s *Session) TryLock() bool { return s.mu.TryLock() }

// Unlock releases the session lock
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records an access
func (s *Session) Touch() { s.LastAccessedAt = time.Now() }

// AppendHistory adds events, dropping the oldest past MaxHistory
func (s *Session) AppendHistory(events ...driver.Event) {
	s.History = append(s.History, events...)
	if len(s.History) > MaxHistory {
		s.History = append([]driver.Event(nil), s.History[len(s.History)-MaxHistory:]...)
	}
}

// info snapshots the session; the caller holds the lock
func (s *Session) info() *SessionInfo {
	name := ""
	if s.Config != nil {
		name = s.Config.Name
	}
	return &SessionInfo{
		ID:             s.ID,
		ConfigID:       s.ConfigID,
		ConfigName:     name,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		GameState:      s.Engine.GetState(),
		GameConfig:     s.Config,
	}
}
