package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/monopoly-game/game/board"
)

// PlayerSetup describes one seat in a game preset
type PlayerSetup struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	AI    bool   `json:"ai"`
}

// GameConfig is a game setup preset loaded from JSON
type GameConfig struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	StartingMoney int           `json:"starting_money"`
	// Salary and AIBuyFactor fall back to the defaults when absent; an
	// explicit 0 means no salary and bots that buy whenever cash is positive
	Salary        *int          `json:"salary,omitempty"`
	AIBuyFactor   *float64      `json:"ai_buy_factor,omitempty"`
	Players       []PlayerSetup `json:"players"`
}

// SalaryAmount returns the configured salary or the default
func (c *GameConfig) SalaryAmount() int {
	if c == nil || c.Salary == nil {
		return DefaultSalary
	}
	return *c.Salary
}

// BuyFactor returns the configured AI buy threshold or the default
func (c *GameConfig) BuyFactor() float64 {
	if c == nil || c.AIBuyFactor == nil {
		return DefaultAIBuyFactor
	}
	return *c.AIBuyFactor
}

// Int returns a pointer to v for optional preset fields
func Int(v int) *int { return &v }

// Float returns a pointer to v for optional preset fields
func Float(v float64) *float64 { return &v }

// DefaultGameConfig is the classic table: one human against two bots
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:          "Classic",
		Description:   "One human player against two bots",
		StartingMoney: DefaultStartingMoney,
		Salary:        Int(DefaultSalary),
		AIBuyFactor:   Float(DefaultAIBuyFactor),
		Players: []PlayerSetup{
			{Name: "Player 1", Color: "red", AI: false},
			{Name: "Bot 1", Color: "blue", AI: true},
			{Name: "Bot 2", Color: "green", AI: true},
		},
	}
}

// ValidateGameConfig checks a preset for completeness and sane values
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if config.StartingMoney <= 0 {
		return fmt.Errorf("config validation: starting_money must be positive, got %d", config.StartingMoney)
	}
	if config.SalaryAmount() < 0 {
		return fmt.Errorf("config validation: salary cannot be negative, got %d", config.SalaryAmount())
	}
	if config.BuyFactor() < 0 {
		return fmt.Errorf("config validation: ai_buy_factor cannot be negative, got %g", config.BuyFactor())
	}

	if len(config.Players) < MinPlayers || len(config.Players) > MaxPlayers {
		return fmt.Errorf("config validation: players must have between %d and %d entries, got %d",
			MinPlayers, MaxPlayers, len(config.Players))
	}

	names := make(map[string]bool, len(config.Players))
	for i, p := range config.Players {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("config validation: players[%d].name is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("config validation: duplicate player name %q", p.Name)
		}
		names[p.Name] = true
		if p.Color == "" {
			return fmt.Errorf("config validation: players[%d].color is required", i)
		}
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InitGameStateFromConfig builds the opening state for a preset: every
// player on GO with the starting money, every property unowned, player 0 to
// roll. A nil config uses DefaultGameConfig.
func InitGameStateFromConfig(config *GameConfig) GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	money := config.StartingMoney
	if money == 0 {
		money = DefaultStartingMoney
	}

	players := make([]PlayerState, len(config.Players))
	for i, p := range config.Players {
		players[i] = PlayerState{
			ID:       i,
			Name:     p.Name,
			Money:    money,
			Position: 0,
			Color:    p.Color,
			IsAI:     p.AI,
		}
	}

	properties := make([]PropertyRecord, board.Size)
	for i := range properties {
		properties[i] = PropertyRecord{Owner: Unowned}
	}

	return GameState{
		Players:         players,
		Properties:      properties,
		Turn:            0,
		WaitingFor:      AwaitingRoll,
		CurrentProperty: NoProperty,
		Dice:            [2]int{1, 1},
		LastRoll:        0,
		ConfigName:      config.Name,
	}
}

// ValidateState checks a restored snapshot before it replaces live state
func ValidateState(state GameState) error {
	if len(state.Players) == 0 {
		return fmt.Errorf("state validation: no players")
	}
	if len(state.Properties) != board.Size {
		return fmt.Errorf("state validation: expected %d property records, got %d", board.Size, len(state.Properties))
	}
	if !state.validPlayer(state.Turn) {
		return fmt.Errorf("state validation: turn %d out of range", state.Turn)
	}
	if !state.WaitingFor.Valid() {
		return fmt.Errorf("state validation: unknown waiting mode %q", state.WaitingFor)
	}
	for i, p := range state.Players {
		if p.ID != i {
			return fmt.Errorf("state validation: player %d has id %d", i, p.ID)
		}
		if !validPosition(p.Position) {
			return fmt.Errorf("state validation: player %d position %d out of range", i, p.Position)
		}
	}
	for pos, rec := range state.Properties {
		if rec.Owner != Unowned && !state.validPlayer(rec.Owner) {
			return fmt.Errorf("state validation: property %d owned by unknown player %d", pos, rec.Owner)
		}
		if rec.Houses < 0 || rec.Houses > board.MaxHouses {
			return fmt.Errorf("state validation: property %d has %d houses", pos, rec.Houses)
		}
	}

	// only states between player actions can be resumed
	switch state.WaitingFor {
	case AwaitingRoll:
	case AwaitingPropertyDecision:
		pos := state.CurrentProperty
		if !state.HasCurrentProperty() {
			return fmt.Errorf("state validation: property decision without a property")
		}
		if !board.Get(pos).Purchasable() {
			return fmt.Errorf("state validation: %s cannot be purchased", board.Get(pos).Name)
		}
		if state.Properties[pos].Owned() {
			return fmt.Errorf("state validation: %s is already owned by player %d", board.Get(pos).Name, state.Properties[pos].Owner)
		}
		if state.Players[state.Turn].Position != pos {
			return fmt.Errorf("state validation: player %d is not on property %d", state.Turn, pos)
		}
	default:
		return fmt.Errorf("state validation: cannot resume a game in %s", state.WaitingFor)
	}
	return nil
}
