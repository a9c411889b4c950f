// Command analyze prints quick, human-readable heuristics about the board
// and the setup presets: price and rent figures per color group, and the
// outcome of seeded all-computer simulations of each preset (landing
// frequency, purchases, rent flow and final cash).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/config"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "board statistics and seeded preset simulations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing setup presets"},
			&cli.IntFlag{Name: "games", Value: 20, Usage: "simulated games per preset"},
			&cli.IntFlag{Name: "turns", Value: 200, Usage: "turns per simulated game"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "first dice seed"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			printCatalog(os.Stdout)

			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			presets, err := manager.ListConfigs()
			if err != nil {
				return err
			}

			for _, info := range presets {
				cfg, err := manager.LoadConfig(info.ConfigID)
				if err != nil {
					fmt.Printf("Error loading %s: %v\n", info.Filename, err)
					continue
				}
				fmt.Printf("\n=== Simulating %s (%s) ===\n", cfg.Name, info.Filename)

				report, err := simulate(ctx, cfg, uint64(cmd.Int("seed")), int(cmd.Int("games")), int(cmd.Int("turns")))
				if err != nil {
					fmt.Printf("Simulation failed: %v\n", err)
					continue
				}
				report.print(os.Stdout)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// groupStats summarises one color group
type groupStats struct {
	Color     string
	Tiles     int
	Price     int
	BaseRent  int
	HotelRent int
}

// Payback is how many base-rent visits recover the group's price
func (g groupStats) Payback() float64 {
	if g.BaseRent == 0 {
		return 0
	}
	return float64(g.Price) / float64(g.BaseRent)
}

func catalogGroups() []groupStats {
	var groups []groupStats
	seen := map[string]bool{}
	for _, tile := range board.All() {
		if tile.Category != board.Property || seen[tile.Color] {
			continue
		}
		seen[tile.Color] = true

		g := groupStats{Color: tile.Color}
		for _, pos := range board.GroupPositions(tile.Color) {
			t := board.Get(pos)
			g.Tiles++
			g.Price += t.Price
			g.BaseRent += t.BaseRent(0)
			g.HotelRent += t.BaseRent(board.MaxHouses)
		}
		groups = append(groups, g)
	}
	return groups
}

func printCatalog(w io.Writer) {
	fmt.Fprintf(w, "=== Board ===\n")
	for _, c := range []board.Category{board.Property, board.Station, board.Utility, board.Tax, board.Chance, board.Chest, board.Corner} {
		fmt.Fprintf(w, "%-9s %d tiles\n", c, len(board.Positions(c)))
	}

	fmt.Fprintf(w, "\n%-12s %5s %6s %6s %7s %8s\n", "group", "tiles", "price", "rent", "hotel", "payback")
	for _, g := range catalogGroups() {
		fmt.Fprintf(w, "%-12s %5d %6d %6d %7d %8.1f\n", g.Color, g.Tiles, g.Price, g.BaseRent, g.HotelRent, g.Payback())
	}
}

// simReport aggregates every simulated game of one preset
type simReport struct {
	Games      int
	Turns      int
	Landings   [board.Size]int
	Purchases  int
	RentPaid   int
	TaxPaid    int
	SalaryPaid int
	// FinalMoney is the average closing balance per seat
	FinalMoney []float64
	Negative   int
}

// simulate plays games of cfg with every seat computer controlled. Game i
// rolls from seed+i so runs are reproducible.
func simulate(ctx context.Context, cfg *engine.GameConfig, seed uint64, games, turns int) (*simReport, error) {
	report := &simReport{Games: games, Turns: turns, FinalMoney: make([]float64, len(cfg.Players))}

	bots := *cfg
	bots.Players = make([]engine.PlayerSetup, len(cfg.Players))
	for p, setup := range cfg.Players {
		setup.AI = true
		bots.Players[p] = setup
	}

	for i := 0; i < games; i++ {
		eng, err := engine.NewEngine(&bots)
		if err != nil {
			return nil, err
		}

		d := driver.New(eng,
			driver.WithRoller(driver.NewRandomRoller(seed+uint64(i))),
			driver.WithSalary(cfg.SalaryAmount()),
			driver.WithPolicy(driver.ThresholdPolicy{Factor: cfg.BuyFactor()}),
			driver.WithListener(report.record),
		)

		for t := 0; t < turns; t++ {
			res, err := d.PlayAITurn(ctx)
			if err != nil {
				return nil, fmt.Errorf("game %d turn %d: %w", i, t, err)
			}
			if res.Arrival != nil {
				report.Landings[res.Arrival.Position]++
			}
		}

		for p, player := range eng.GetState().Players {
			report.FinalMoney[p] += float64(player.Money) / float64(games)
			if player.Money < 0 {
				report.Negative++
			}
		}
	}
	return report, nil
}

func (r *simReport) record(e driver.Event) {
	switch e.Type {
	case driver.EventPurchase:
		r.Purchases++
	case driver.EventRent:
		r.RentPaid += e.Amount
	case driver.EventTax:
		r.TaxPaid += e.Amount
	case driver.EventSalary:
		r.SalaryPaid += e.Amount
	}
}

// hottest returns the n most landed-on positions, ties by position
func (r *simReport) hottest(n int) []int {
	positions := make([]int, 0, board.Size)
	for pos, count := range r.Landings {
		if count > 0 {
			positions = append(positions, pos)
		}
	}
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if r.Landings[a] != r.Landings[b] {
			return r.Landings[a] > r.Landings[b]
		}
		return a < b
	})
	if len(positions) > n {
		positions = positions[:n]
	}
	return positions
}

func (r *simReport) print(w io.Writer) {
	fmt.Fprintf(w, "Games: %d x %d turns\n", r.Games, r.Turns)
	fmt.Fprintf(w, "Purchases: %d, rent paid: $%d, tax paid: $%d, salary paid: $%d\n",
		r.Purchases, r.RentPaid, r.TaxPaid, r.SalaryPaid)

	money := make([]string, len(r.FinalMoney))
	for i, m := range r.FinalMoney {
		money[i] = fmt.Sprintf("$%.0f", m)
	}
	fmt.Fprintf(w, "Average final cash per seat: %s\n", strings.Join(money, ", "))

	if r.Negative > 0 {
		fmt.Fprintf(w, "⚠️  %d seats finished below zero\n", r.Negative)
	}

	fmt.Fprintf(w, "Most visited tiles:\n")
	for _, pos := range r.hottest(5) {
		fmt.Fprintf(w, "   %2d %-22s %d\n", pos, board.Get(pos).Name, r.Landings[pos])
	}
}
