package engine

import (
	"errors"
	"fmt"

	"github.com/wricardo/monopoly-game/game/board"
)

var (
	ErrInvalidPlayer   = errors.New("invalid player")
	ErrInvalidPosition = errors.New("invalid board position")
	ErrInvalidProperty = errors.New("invalid property index")
	ErrInvalidMode     = errors.New("invalid waiting mode")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNotPurchasable  = errors.New("tile cannot be purchased")
	ErrAlreadyOwned    = errors.New("property already owned")
	ErrUnknownCommand  = errors.New("unknown command")
)

// Apply returns the state that results from applying cmd to state.
//
// Apply is pure: it never mutates its input and performs no I/O. Commands
// that reference a player, position or property outside the state are
// treated as no-ops and return an unchanged copy. Use Validate to detect
// those cases up front.
func Apply(state GameState, cmd Command) GameState {
	next := state.Clone()

	switch c := cmd.(type) {
	case RollDice:
		next.Dice = [2]int{c.D1, c.D2}
		next.LastRoll = c.D1 + c.D2

	case MovePlayer:
		if !next.validPlayer(c.PlayerID) || !validPosition(c.Position) {
			return next
		}
		next.Players[c.PlayerID].Position = c.Position

	case SetWaiting:
		if !c.Mode.Valid() {
			return next
		}
		if c.PropertyIdx != nil && *c.PropertyIdx != NoProperty && !validPosition(*c.PropertyIdx) {
			return next
		}
		next.WaitingFor = c.Mode
		if c.PropertyIdx != nil {
			next.CurrentProperty = *c.PropertyIdx
		}

	case BuyProperty:
		if !next.validPlayer(next.Turn) || c.PropertyIdx < 0 || c.PropertyIdx >= len(next.Properties) {
			return next
		}
		buyer := &next.Players[next.Turn]
		if buyer.Money >= c.Price {
			buyer.Money -= c.Price
			next.Properties[c.PropertyIdx].Owner = buyer.ID
		}
		next.WaitingFor = AwaitingRoll
		next.CurrentProperty = NoProperty

	case PayRent:
		if !next.validParty(c.From) || !next.validParty(c.To) {
			return next
		}
		if id, ok := c.From.PlayerID(); ok {
			next.Players[id].Money -= c.Amount
		}
		if id, ok := c.To.PlayerID(); ok {
			next.Players[id].Money += c.Amount
		}

	case NextTurn:
		if len(next.Players) == 0 {
			return next
		}
		next.Turn = (next.Turn + 1) % len(next.Players)
		next.WaitingFor = AwaitingRoll
		next.CurrentProperty = NoProperty
	}

	return next
}

// Validate reports why cmd would be rejected by a careful caller. It checks
// index ranges and purchase preconditions; it does not check funds, since
// an underfunded purchase is a legal no-op.
func Validate(state GameState, cmd Command) error {
	switch c := cmd.(type) {
	case RollDice:
		if c.D1 < 1 || c.D1 > 6 || c.D2 < 1 || c.D2 > 6 {
			return fmt.Errorf("%w: dice %d and %d", ErrInvalidAmount, c.D1, c.D2)
		}

	case MovePlayer:
		if !state.validPlayer(c.PlayerID) {
			return fmt.Errorf("%w: %d", ErrInvalidPlayer, c.PlayerID)
		}
		if !validPosition(c.Position) {
			return fmt.Errorf("%w: %d", ErrInvalidPosition, c.Position)
		}

	case SetWaiting:
		if !c.Mode.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
		}
		if c.PropertyIdx != nil && *c.PropertyIdx != NoProperty && !validPosition(*c.PropertyIdx) {
			return fmt.Errorf("%w: %d", ErrInvalidProperty, *c.PropertyIdx)
		}

	case BuyProperty:
		if !state.validPlayer(state.Turn) {
			return fmt.Errorf("%w: turn %d", ErrInvalidPlayer, state.Turn)
		}
		if c.PropertyIdx < 0 || c.PropertyIdx >= len(state.Properties) {
			return fmt.Errorf("%w: %d", ErrInvalidProperty, c.PropertyIdx)
		}
		if !board.Get(c.PropertyIdx).Purchasable() {
			return fmt.Errorf("%w: %s", ErrNotPurchasable, board.Get(c.PropertyIdx).Name)
		}
		if state.Properties[c.PropertyIdx].Owned() {
			return fmt.Errorf("%w: %s", ErrAlreadyOwned, board.Get(c.PropertyIdx).Name)
		}
		if c.Price < 0 {
			return fmt.Errorf("%w: price %d", ErrInvalidAmount, c.Price)
		}

	case PayRent:
		if !state.validParty(c.From) {
			return fmt.Errorf("%w: from %s", ErrInvalidPlayer, c.From)
		}
		if !state.validParty(c.To) {
			return fmt.Errorf("%w: to %s", ErrInvalidPlayer, c.To)
		}
		if c.Amount < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidAmount, c.Amount)
		}

	case NextTurn:
		if len(state.Players) == 0 {
			return fmt.Errorf("%w: no players", ErrInvalidPlayer)
		}

	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	return nil
}

func (gs GameState) validParty(p Party) bool {
	id, ok := p.PlayerID()
	if !ok {
		return true
	}
	return gs.validPlayer(id)
}
