package engine

import "fmt"

// Command is one input to the transition function. The set of variants is
// closed: RollDice, MovePlayer, SetWaiting, BuyProperty, PayRent and NextTurn.
type Command interface {
	Kind() string
	isCommand()
}

// RollDice records the dice values and their sum
type RollDice struct {
	D1 int `json:"d1"`
	D2 int `json:"d2"`
}

// MovePlayer sets a player's position
type MovePlayer struct {
	PlayerID int `json:"player_id"`
	Position int `json:"position"`
}

// SetWaiting sets the waiting mode. PropertyIdx is optional; when nil the
// current property is left untouched.
type SetWaiting struct {
	Mode        WaitingMode `json:"mode"`
	PropertyIdx *int        `json:"property_idx,omitempty"`
}

// BuyProperty buys a property for the player whose turn it is
type BuyProperty struct {
	PropertyIdx int `json:"property_idx"`
	Price       int `json:"price"`
}

// PayRent moves money between two parties. It is the general transfer
// primitive: rent, salary and tax all go through it.
type PayRent struct {
	From   Party `json:"from"`
	To     Party `json:"to"`
	Amount int   `json:"amount"`
}

// NextTurn hands the turn to the next player
type NextTurn struct{}

func (RollDice) Kind() string    { return "roll_dice" }
func (MovePlayer) Kind() string  { return "move_player" }
func (SetWaiting) Kind() string  { return "set_waiting" }
func (BuyProperty) Kind() string { return "buy_property" }
func (PayRent) Kind() string     { return "pay_rent" }
func (NextTurn) Kind() string    { return "next_turn" }

func (RollDice) isCommand()    {}
func (MovePlayer) isCommand()  {}
func (SetWaiting) isCommand()  {}
func (BuyProperty) isCommand() {}
func (PayRent) isCommand()     {}
func (NextTurn) isCommand()    {}

func (c RollDice) String() string { return fmt.Sprintf("roll %d+%d", c.D1, c.D2) }
func (c MovePlayer) String() string {
	return fmt.Sprintf("move player %d to %d", c.PlayerID, c.Position)
}
func (c SetWaiting) String() string {
	if c.PropertyIdx != nil {
		return fmt.Sprintf("wait %s (property %d)", c.Mode, *c.PropertyIdx)
	}
	return fmt.Sprintf("wait %s", c.Mode)
}
func (c BuyProperty) String() string {
	return fmt.Sprintf("buy property %d for %d", c.PropertyIdx, c.Price)
}
func (c PayRent) String() string {
	return fmt.Sprintf("pay %d from %s to %s", c.Amount, c.From, c.To)
}
func (NextTurn) String() string { return "next turn" }

// WaitFor builds a SetWaiting that leaves the current property alone
func WaitFor(mode WaitingMode) SetWaiting {
	return SetWaiting{Mode: mode}
}

// WaitForProperty builds a SetWaiting that also selects a property
func WaitForProperty(mode WaitingMode, propertyIdx int) SetWaiting {
	idx := propertyIdx
	return SetWaiting{Mode: mode, PropertyIdx: &idx}
}
