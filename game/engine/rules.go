package engine

import "github.com/wricardo/monopoly-game/game/board"

// ArrivalKind is the outcome category of landing on a tile
type ArrivalKind string

const (
	ArrivalOffer   ArrivalKind = "offer"    // unowned purchasable tile
	ArrivalRent    ArrivalKind = "rent"     // owned by another player
	ArrivalOwnTile ArrivalKind = "own_tile" // owned by the lander
	ArrivalTax     ArrivalKind = "tax"
	ArrivalNone    ArrivalKind = "none" // corners, chance, chest
)

// Station and utility rent parameters
const (
	StationBaseRent         = 25
	UtilitySingleMultiplier = 4
	UtilityPairMultiplier   = 10
)

// Arrival describes what landing on a tile means for the active player
type Arrival struct {
	Kind     ArrivalKind `json:"kind"`
	Position int         `json:"position"`
	Tile     string      `json:"tile"`
	Price    int         `json:"price,omitempty"`
	Owner    int         `json:"owner"`
	Amount   int         `json:"amount,omitempty"`
}

// CountOwned counts the tiles of a category held by owner
func CountOwned(state GameState, owner int, c board.Category) int {
	n := 0
	for _, pos := range board.Positions(c) {
		if pos < len(state.Properties) && state.Properties[pos].Owner == owner {
			n++
		}
	}
	return n
}

// Rent returns what a visitor owes the owner of pos. Unowned and
// non-purchasable tiles cost nothing.
func Rent(state GameState, pos int) int {
	if !validPosition(pos) || pos >= len(state.Properties) {
		return 0
	}
	rec := state.Properties[pos]
	if !rec.Owned() {
		return 0
	}

	tile := board.Get(pos)
	switch tile.Category {
	case board.Property:
		return tile.BaseRent(rec.Houses)
	case board.Station:
		n := CountOwned(state, rec.Owner, board.Station)
		if n < 1 {
			return 0
		}
		return StationBaseRent << (n - 1)
	case board.Utility:
		multiplier := UtilitySingleMultiplier
		if CountOwned(state, rec.Owner, board.Utility) == len(board.Positions(board.Utility)) {
			multiplier = UtilityPairMultiplier
		}
		return multiplier * state.LastRoll
	}
	return 0
}

// ResolveArrival classifies the tile under the given player's token
func ResolveArrival(state GameState, playerID int) Arrival {
	if !state.validPlayer(playerID) {
		return Arrival{Kind: ArrivalNone, Owner: Unowned}
	}

	pos := state.Players[playerID].Position
	tile := board.Get(pos)
	arrival := Arrival{
		Kind:     ArrivalNone,
		Position: tile.Position,
		Tile:     tile.Name,
		Owner:    Unowned,
	}

	switch {
	case tile.Purchasable() && tile.Position < len(state.Properties):
		rec := state.Properties[tile.Position]
		arrival.Owner = rec.Owner
		switch {
		case !rec.Owned():
			arrival.Kind = ArrivalOffer
			arrival.Price = tile.Price
		case rec.Owner == playerID:
			arrival.Kind = ArrivalOwnTile
		default:
			arrival.Kind = ArrivalRent
			arrival.Amount = Rent(state, tile.Position)
		}
	case tile.Category == board.Tax:
		arrival.Kind = ArrivalTax
		arrival.Amount = tile.Price
	}

	return arrival
}
