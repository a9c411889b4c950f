package driver

import (
	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/engine"
)

// BuyPolicy decides purchases for autonomous players
type BuyPolicy interface {
	ShouldBuy(player engine.PlayerState, tile board.Tile) bool
}

// ThresholdPolicy buys when cash is strictly above Factor times the price.
// A zero Factor buys whenever cash is positive.
type ThresholdPolicy struct {
	Factor float64
}

// ShouldBuy implements BuyPolicy
func (p ThresholdPolicy) ShouldBuy(player engine.PlayerState, tile board.Tile) bool {
	return float64(player.Money) > p.Factor*float64(tile.Price)
}

// BuyPolicyFunc adapts a function to BuyPolicy
type BuyPolicyFunc func(player engine.PlayerState, tile board.Tile) bool

// ShouldBuy implements BuyPolicy
func (f BuyPolicyFunc) ShouldBuy(player engine.PlayerState, tile board.Tile) bool {
	return f(player, tile)
}
