package board

// Category classifies what happens when a token stops on a tile
type Category string

const (
	Property Category = "property"
	Tax      Category = "tax"
	Station  Category = "station"
	Utility  Category = "utility"
	Chance   Category = "chance"
	Chest    Category = "chest"
	Corner   Category = "corner"

	// Size is the number of tiles on the board
	Size = 40

	// MaxHouses is the highest improvement level; 5 is the hotel tier
	MaxHouses = 5
)

// Tile is an immutable catalog entry
type Tile struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Color    string   `json:"color,omitempty"`
	Price    int      `json:"price,omitempty"`
	Rent     []int    `json:"rent,omitempty"`
	Category Category `json:"category"`
}

// Purchasable reports whether the tile can be owned
func (t Tile) Purchasable() bool {
	switch t.Category {
	case Property, Station, Utility:
		return true
	}
	return false
}

// BaseRent returns the rent table entry for the given improvement level,
// clamped to the table bounds. Tiles without a table return 0.
func (t Tile) BaseRent(houses int) int {
	if len(t.Rent) == 0 {
		return 0
	}
	if houses < 0 {
		houses = 0
	}
	if houses >= len(t.Rent) {
		houses = len(t.Rent) - 1
	}
	return t.Rent[houses]
}

var tiles = [Size]Tile{
	{Name: "GO", Category: Corner},
	{Name: "Old Kent Rd", Color: "#8B4513", Price: 60, Rent: []int{2, 10, 30, 90, 160, 250}, Category: Property},
	{Name: "Community Chest", Category: Chest},
	{Name: "Whitechapel", Color: "#8B4513", Price: 60, Rent: []int{4, 20, 60, 180, 320, 450}, Category: Property},
	{Name: "Income Tax", Price: 200, Category: Tax},
	{Name: "Kings Cross", Price: 200, Rent: []int{25, 50, 100, 200}, Category: Station},
	{Name: "Angel Islington", Color: "#87CEEB", Price: 100, Rent: []int{6, 30, 90, 270, 400, 550}, Category: Property},
	{Name: "Chance", Category: Chance},
	{Name: "Euston Rd", Color: "#87CEEB", Price: 100, Rent: []int{6, 30, 90, 270, 400, 550}, Category: Property},
	{Name: "Pentonville Rd", Color: "#87CEEB", Price: 120, Rent: []int{8, 40, 100, 300, 450, 600}, Category: Property},
	{Name: "Jail", Category: Corner},
	{Name: "Pall Mall", Color: "#FF0080", Price: 140, Rent: []int{10, 50, 150, 450, 625, 750}, Category: Property},
	{Name: "Electric Co", Price: 150, Category: Utility},
	{Name: "Whitehall", Color: "#FF0080", Price: 140, Rent: []int{10, 50, 150, 450, 625, 750}, Category: Property},
	{Name: "Northumberl'd", Color: "#FF0080", Price: 160, Rent: []int{12, 60, 180, 500, 700, 900}, Category: Property},
	{Name: "Marylebone", Price: 200, Rent: []int{25, 50, 100, 200}, Category: Station},
	{Name: "Bow St", Color: "#FFA500", Price: 180, Rent: []int{14, 70, 200, 550, 750, 950}, Category: Property},
	{Name: "Community Chest", Category: Chest},
	{Name: "Marlborough St", Color: "#FFA500", Price: 180, Rent: []int{14, 70, 200, 550, 750, 950}, Category: Property},
	{Name: "Vine St", Color: "#FFA500", Price: 200, Rent: []int{16, 80, 220, 600, 800, 1000}, Category: Property},
	{Name: "Free Parking", Category: Corner},
	{Name: "Strand", Color: "#FF0000", Price: 220, Rent: []int{18, 90, 250, 700, 875, 1050}, Category: Property},
	{Name: "Chance", Category: Chance},
	{Name: "Fleet St", Color: "#FF0000", Price: 220, Rent: []int{18, 90, 250, 700, 875, 1050}, Category: Property},
	{Name: "Trafalgar Sq", Color: "#FF0000", Price: 240, Rent: []int{20, 100, 300, 750, 925, 1100}, Category: Property},
	{Name: "Fenchurch St", Price: 200, Rent: []int{25, 50, 100, 200}, Category: Station},
	{Name: "Leicester Sq", Color: "#FFFF00", Price: 260, Rent: []int{22, 110, 330, 800, 975, 1150}, Category: Property},
	{Name: "Coventry St", Color: "#FFFF00", Price: 260, Rent: []int{22, 110, 330, 800, 975, 1150}, Category: Property},
	{Name: "Water Works", Price: 150, Category: Utility},
	{Name: "Piccadilly", Color: "#FFFF00", Price: 280, Rent: []int{24, 120, 360, 850, 1025, 1200}, Category: Property},
	{Name: "Go To Jail", Category: Corner},
	{Name: "Regent St", Color: "#008000", Price: 300, Rent: []int{26, 130, 390, 900, 1100, 1275}, Category: Property},
	{Name: "Oxford St", Color: "#008000", Price: 300, Rent: []int{26, 130, 390, 900, 1100, 1275}, Category: Property},
	{Name: "Community Chest", Category: Chest},
	{Name: "Bond St", Color: "#008000", Price: 320, Rent: []int{28, 150, 450, 1000, 1200, 1400}, Category: Property},
	{Name: "Liverpool St", Price: 200, Rent: []int{25, 50, 100, 200}, Category: Station},
	{Name: "Chance", Category: Chance},
	{Name: "Park Lane", Color: "#000080", Price: 350, Rent: []int{35, 175, 500, 1100, 1300, 1500}, Category: Property},
	{Name: "Super Tax", Price: 100, Category: Tax},
	{Name: "Mayfair", Color: "#000080", Price: 400, Rent: []int{50, 200, 600, 1400, 1700, 2000}, Category: Property},
}

func init() {
	for i := range tiles {
		tiles[i].Position = i
	}
}

// Wrap maps any integer onto a board position in 0..Size-1
func Wrap(pos int) int {
	pos %= Size
	if pos < 0 {
		pos += Size
	}
	return pos
}

// Get returns the tile at pos. Positions outside 0..39 wrap around the board.
// The returned rent slice is shared and must not be modified.
func Get(pos int) Tile {
	return tiles[Wrap(pos)]
}

// All returns a copy of the catalog in board order
func All() []Tile {
	out := make([]Tile, Size)
	copy(out, tiles[:])
	return out
}

// Positions returns every board position of the given category in board order
func Positions(c Category) []int {
	var out []int
	for i := range tiles {
		if tiles[i].Category == c {
			out = append(out, i)
		}
	}
	return out
}

// GroupPositions returns the property positions sharing a color group
func GroupPositions(color string) []int {
	if color == "" {
		return nil
	}
	var out []int
	for i := range tiles {
		if tiles[i].Category == Property && tiles[i].Color == color {
			out = append(out, i)
		}
	}
	return out
}
