package engine

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/wricardo/monopoly-game/game/board"
)

// WaitingMode tells callers what input the game is blocked on
type WaitingMode string

const (
	AwaitingRoll                WaitingMode = "awaiting-roll"
	AwaitingPropertyDecision    WaitingMode = "awaiting-property-decision"
	AwaitingImprovementDecision WaitingMode = "awaiting-improvement-decision" // reserved, no rule enters it
	AnimatingMovement           WaitingMode = "animating-movement"

	// Unowned marks a property record with no owner
	Unowned = -1
	// NoProperty marks that no property is under decision
	NoProperty = -1

	// Setup defaults
	DefaultStartingMoney = 1500
	DefaultSalary        = 200
	DefaultAIBuyFactor   = 1.5
	MinPlayers           = 2
	MaxPlayers           = 8
)

// Valid reports whether m is one of the known waiting modes
func (m WaitingMode) Valid() bool {
	switch m {
	case AwaitingRoll, AwaitingPropertyDecision, AwaitingImprovementDecision, AnimatingMovement:
		return true
	}
	return false
}

// PlayerState is one seat at the table. ID equals the turn-order index.
type PlayerState struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Money    int    `json:"money"`
	Position int    `json:"position"`
	Color    string `json:"color"`
	IsAI     bool   `json:"is_ai"`
}

// PropertyRecord is the ownership record for one board position
type PropertyRecord struct {
	Owner     int  `json:"owner"`
	Houses    int  `json:"houses"`
	Mortgaged bool `json:"mortgaged"` // carried in snapshots, not read by any rule
}

// Owned reports whether any player owns the record
func (p PropertyRecord) Owned() bool {
	return p.Owner != Unowned
}

// GameState is the aggregate root for one game
type GameState struct {
	Players         []PlayerState    `json:"players"`
	Properties      []PropertyRecord `json:"properties"`
	Turn            int              `json:"turn"`
	WaitingFor      WaitingMode      `json:"waiting_for_action"`
	CurrentProperty int              `json:"current_property"`
	Dice            [2]int           `json:"dice"`
	LastRoll        int              `json:"last_roll"`
	ConfigName      string           `json:"config_name,omitempty"`
}

// Clone returns a deep copy of the state
func (gs GameState) Clone() GameState {
	out := gs
	out.Players = append([]PlayerState(nil), gs.Players...)
	out.Properties = append([]PropertyRecord(nil), gs.Properties...)
	return out
}

// ActivePlayer returns the player whose turn it is
func (gs GameState) ActivePlayer() (PlayerState, bool) {
	if !gs.validPlayer(gs.Turn) {
		return PlayerState{}, false
	}
	return gs.Players[gs.Turn], true
}

// HasCurrentProperty reports whether a property is under decision
func (gs GameState) HasCurrentProperty() bool {
	return gs.CurrentProperty != NoProperty && validPosition(gs.CurrentProperty)
}

// TotalMoney sums every player's balance
func (gs GameState) TotalMoney() int {
	total := 0
	for _, p := range gs.Players {
		total += p.Money
	}
	return total
}

// OwnedBy returns the positions owned by a player in board order
func (gs GameState) OwnedBy(playerID int) []int {
	var out []int
	for pos, rec := range gs.Properties {
		if rec.Owner == playerID {
			out = append(out, pos)
		}
	}
	return out
}

func (gs GameState) validPlayer(id int) bool {
	return id >= 0 && id < len(gs.Players)
}

func validPosition(pos int) bool {
	return pos >= 0 && pos < board.Size
}

// Party is one side of a money transfer: the bank or a seated player
type Party struct {
	bank     bool
	playerID int
}

// Bank is the infinite source and sink for salary, tax and purchases
func Bank() Party {
	return Party{bank: true}
}

// Player returns the party for a seated player
func Player(id int) Party {
	return Party{playerID: id}
}

// IsBank reports whether the party is the bank
func (p Party) IsBank() bool {
	return p.bank
}

// PlayerID returns the player id and false when the party is the bank
func (p Party) PlayerID() (int, bool) {
	if p.bank {
		return 0, false
	}
	return p.playerID, true
}

func (p Party) String() string {
	if p.bank {
		return "bank"
	}
	return "player " + strconv.Itoa(p.playerID)
}

// MarshalJSON encodes the bank as "bank" and a player as its id
func (p Party) MarshalJSON() ([]byte, error) {
	if p.bank {
		return []byte(`"bank"`), nil
	}
	return []byte(strconv.Itoa(p.playerID)), nil
}

// UnmarshalJSON accepts "bank" or a numeric player id
func (p *Party) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "bank" {
			return fmt.Errorf("unknown party %q", s)
		}
		*p = Bank()
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("party must be \"bank\" or a player id: %w", err)
	}
	*p = Player(id)
	return nil
}
