package engine

import (
	"fmt"
	"time"
)

// MaxCommandLog bounds the number of commands kept by a GameEngine
const MaxCommandLog = 500

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState

	// Transitions
	Dispatch(cmd Command) *GameState

	// Queries
	ActivePlayer() (PlayerState, bool)
	WaitingFor() WaitingMode

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	Commands() []CommandRecord
}

// CommandRecord is one applied command in the engine log
type CommandRecord struct {
	Seq       int     `json:"seq"`
	Kind      string  `json:"kind"`
	Command   Command `json:"command"`
	Timestamp int64   `json:"timestamp"`
}

// GameEngine owns the canonical state of one game. Every change goes through
// Dispatch. It is not safe for concurrent use; callers serialise access.
type GameEngine struct {
	state    GameState
	config   *GameConfig
	commands []CommandRecord
	seq      int
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the classic setup
func NewEngineWithDefaults() *GameEngine {
	config := DefaultGameConfig()
	return &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
	}
}

// GetState returns a copy of the current state
func (e *GameEngine) GetState() *GameState {
	s := e.state.Clone()
	return &s
}

// SetState replaces the state (used when restoring snapshots)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := ValidateState(*state); err != nil {
		return err
	}
	e.state = state.Clone()
	return nil
}

// Reset starts the game over from the configured setup
func (e *GameEngine) Reset() *GameState {
	e.state = InitGameStateFromConfig(e.config)
	e.commands = nil
	return e.GetState()
}

// Dispatch applies cmd and returns the resulting state
func (e *GameEngine) Dispatch(cmd Command) *GameState {
	e.state = Apply(e.state, cmd)

	e.seq++
	e.commands = append(e.commands, CommandRecord{
		Seq:       e.seq,
		Kind:      cmd.Kind(),
		Command:   cmd,
		Timestamp: time.Now().Unix(),
	})
	if len(e.commands) > MaxCommandLog {
		e.commands = append([]CommandRecord(nil), e.commands[len(e.commands)-MaxCommandLog:]...)
	}

	return e.GetState()
}

// ActivePlayer returns the player whose turn it is
func (e *GameEngine) ActivePlayer() (PlayerState, bool) {
	return e.state.ActivePlayer()
}

// WaitingFor returns the current waiting mode
func (e *GameEngine) WaitingFor() WaitingMode {
	return e.state.WaitingFor
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.Reset()
	return nil
}

// Commands returns the applied commands, oldest first
func (e *GameEngine) Commands() []CommandRecord {
	return append([]CommandRecord(nil), e.commands...)
}
