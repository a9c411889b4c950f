package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:          "Test Config",
		Description:   "A valid test configuration",
		StartingMoney: 1000,
		Salary:        Int(150),
		AIBuyFactor:   Float(2),
		Players: []PlayerSetup{
			{Name: "Alice", Color: "red"},
			{Name: "Robo", Color: "blue", AI: true},
		},
	}
}

func TestValidateGameConfig_Valid(t *testing.T) {
	if err := ValidateGameConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
	if err := ValidateGameConfig(DefaultGameConfig()); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestValidateGameConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *GameConfig)
		wantErr string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"zero money", func(c *GameConfig) { c.StartingMoney = 0 }, "starting_money"},
		{"negative salary", func(c *GameConfig) { c.Salary = Int(-1) }, "salary"},
		{"negative factor", func(c *GameConfig) { c.AIBuyFactor = Float(-0.5) }, "ai_buy_factor"},
		{"one player", func(c *GameConfig) { c.Players = c.Players[:1] }, "between 2 and 8"},
		{"too many players", func(c *GameConfig) {
			for i := 0; i < 8; i++ {
				c.Players = append(c.Players, PlayerSetup{Name: strings.Repeat("x", i+1), Color: "grey"})
			}
		}, "between 2 and 8"},
		{"blank player name", func(c *GameConfig) { c.Players[1].Name = "  " }, "players[1].name"},
		{"duplicate names", func(c *GameConfig) { c.Players[1].Name = "Alice" }, "duplicate player name"},
		{"missing color", func(c *GameConfig) { c.Players[0].Color = "" }, "players[0].color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.modify(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestInitGameStateFromConfig(t *testing.T) {
	state := InitGameStateFromConfig(createValidConfig())

	if len(state.Players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(state.Players))
	}
	for i, p := range state.Players {
		if p.ID != i {
			t.Errorf("Player %d has id %d", i, p.ID)
		}
		if p.Money != 1000 {
			t.Errorf("Player %d starts with %d, want 1000", i, p.Money)
		}
		if p.Position != 0 {
			t.Errorf("Player %d starts at %d, want 0", i, p.Position)
		}
	}
	if !state.Players[1].IsAI || state.Players[0].IsAI {
		t.Error("AI flags not carried over from setup")
	}
	if len(state.Properties) != 40 {
		t.Fatalf("Expected 40 property records, got %d", len(state.Properties))
	}
	for pos, rec := range state.Properties {
		if rec.Owned() || rec.Houses != 0 || rec.Mortgaged {
			t.Errorf("Property %d not blank: %+v", pos, rec)
		}
	}
	if state.Turn != 0 || state.WaitingFor != AwaitingRoll || state.CurrentProperty != NoProperty {
		t.Errorf("Unexpected opening turn state: %+v", state)
	}
	if state.Dice != [2]int{1, 1} || state.LastRoll != 0 {
		t.Errorf("Unexpected opening dice: %v / %d", state.Dice, state.LastRoll)
	}
	if state.ConfigName != "Test Config" {
		t.Errorf("Expected config name to be recorded, got %q", state.ConfigName)
	}
}

func TestInitGameStateFromConfig_Default(t *testing.T) {
	state := InitGameStateFromConfig(nil)

	want := []PlayerState{
		{ID: 0, Name: "Player 1", Money: 1500, Color: "red"},
		{ID: 1, Name: "Bot 1", Money: 1500, Color: "blue", IsAI: true},
		{ID: 2, Name: "Bot 2", Money: 1500, Color: "green", IsAI: true},
	}
	for i := range want {
		if state.Players[i] != want[i] {
			t.Errorf("Player %d = %+v, want %+v", i, state.Players[i], want[i])
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var nilConfig *GameConfig
	if nilConfig.SalaryAmount() != DefaultSalary {
		t.Error("nil config should use default salary")
	}
	if nilConfig.BuyFactor() != DefaultAIBuyFactor {
		t.Error("nil config should use default buy factor")
	}

	c := createValidConfig()
	if c.SalaryAmount() != 150 || c.BuyFactor() != 2 {
		t.Errorf("configured values ignored: %d %g", c.SalaryAmount(), c.BuyFactor())
	}
}

func TestConfigExplicitZeros(t *testing.T) {
	var absent, zero GameConfig
	if err := json.Unmarshal([]byte(`{"name": "n"}`), &absent); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"name": "n", "salary": 0, "ai_buy_factor": 0}`), &zero); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if absent.SalaryAmount() != DefaultSalary || absent.BuyFactor() != DefaultAIBuyFactor {
		t.Errorf("absent fields should use defaults: %d %g", absent.SalaryAmount(), absent.BuyFactor())
	}
	if zero.SalaryAmount() != 0 || zero.BuyFactor() != 0 {
		t.Errorf("explicit zeros should be kept: %d %g", zero.SalaryAmount(), zero.BuyFactor())
	}

	data, _ := json.Marshal(zero)
	if !strings.Contains(string(data), `"salary":0`) {
		t.Errorf("explicit zero salary lost on marshal: %s", data)
	}
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")

	data, err := json.Marshal(createValidConfig())
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadGameConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Name != "Test Config" || len(config.Players) != 2 {
		t.Errorf("Unexpected config: %+v", config)
	}

	if _, err := LoadGameConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"name": ""}`), 0644)
	if _, err := LoadGameConfig(bad); err == nil {
		t.Error("Expected validation error")
	}
}

func TestValidateState(t *testing.T) {
	valid := InitGameStateFromConfig(nil)
	if err := ValidateState(valid); err != nil {
		t.Fatalf("Opening state should be valid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(s *GameState)
	}{
		{"no players", func(s *GameState) { s.Players = nil }},
		{"short board", func(s *GameState) { s.Properties = s.Properties[:10] }},
		{"turn out of range", func(s *GameState) { s.Turn = 3 }},
		{"bad mode", func(s *GameState) { s.WaitingFor = "?" }},
		{"bad player id", func(s *GameState) { s.Players[1].ID = 5 }},
		{"bad position", func(s *GameState) { s.Players[0].Position = 40 }},
		{"unknown owner", func(s *GameState) { s.Properties[1].Owner = 9 }},
		{"too many houses", func(s *GameState) { s.Properties[1].Houses = 6 }},
		{"mid move", func(s *GameState) { s.WaitingFor = AnimatingMovement }},
		{"improvement decision", func(s *GameState) { s.WaitingFor = AwaitingImprovementDecision }},
		{"decision without property", func(s *GameState) { s.WaitingFor = AwaitingPropertyDecision }},
		{"decision on owned property", func(s *GameState) {
			s.Turn = 1
			s.Players[1].Position = 1
			s.Properties[1].Owner = 0
			s.WaitingFor = AwaitingPropertyDecision
			s.CurrentProperty = 1
		}},
		{"decision on GO", func(s *GameState) {
			s.WaitingFor = AwaitingPropertyDecision
			s.CurrentProperty = 0
		}},
		{"decision away from the token", func(s *GameState) {
			s.WaitingFor = AwaitingPropertyDecision
			s.CurrentProperty = 6
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.Clone()
			tt.modify(&s)
			if err := ValidateState(s); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	decision := valid.Clone()
	decision.Players[0].Position = 6
	decision.WaitingFor = AwaitingPropertyDecision
	decision.CurrentProperty = 6
	if err := ValidateState(decision); err != nil {
		t.Errorf("Open offer on an unowned street should be valid: %v", err)
	}
}
