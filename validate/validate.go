// Command validate provides a small CLI that validates game setup presets
// (the JSON files in ../configs, or the directory given as the first
// argument). It checks:
//   - JSON structure, with unknown fields rejected
//   - the same rules the server applies when loading a preset
//   - that player colors are unique
//
// and reports informational notes for presets that are legal but unusual:
// tables without a human seat, starting money below the cheapest street,
// no salary, or bots that buy with less cash in hand than the price.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
	}

	colors := make(map[string]string, len(config.Players))
	humans := 0
	for _, p := range config.Players {
		if other, ok := colors[p.Color]; ok && p.Color != "" {
			result.fail("Players %q and %q share color %q", other, p.Name, p.Color)
		}
		colors[p.Color] = p.Name
		if !p.AI {
			humans++
		}
	}

	if !result.Valid {
		return result
	}

	result.note("%d players (%d human), $%d to start, $%d salary", len(config.Players), humans, config.StartingMoney, config.SalaryAmount())

	if humans == 0 {
		result.note("No human seat: every turn is played by bots")
	}
	if cheapest := cheapestStreet(); config.StartingMoney < cheapest {
		result.note("Starting money $%d is below the cheapest street ($%d)", config.StartingMoney, cheapest)
	}
	if config.Salary == nil {
		result.note("Salary not set, the default $%d applies", engine.DefaultSalary)
	} else if *config.Salary == 0 {
		result.note("Salary is 0: passing GO pays nothing")
	}
	if config.BuyFactor() < 1 {
		result.note("ai_buy_factor %g lets bots buy tiles they cannot fully afford", config.BuyFactor())
	}

	return result
}

func cheapestStreet() int {
	cheapest := 0
	for _, pos := range board.Positions(board.Property) {
		if price := board.Get(pos).Price; cheapest == 0 || price < cheapest {
			cheapest = price
		}
	}
	return cheapest
}

// main scans the preset directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
