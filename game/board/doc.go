// Package board holds the static 40-tile catalog for the game.
//
// The catalog is plain data: every tile has a name, a category and, for
// purchasable tiles, a price. Properties additionally carry a color group and
// a six-entry rent table indexed by improvement level (0 houses up to the
// hotel tier). Stations carry their owned-count rent table.
//
// Lookups are total and constant time:
//
//	tile := board.Get(39) // Mayfair
//	if tile.Purchasable() {
//		fmt.Println(tile.Name, tile.Price)
//	}
//
// The catalog never changes at runtime and is safe for concurrent use.
package board
