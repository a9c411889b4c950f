// Package engine provides the core game rules for the board game.
//
// The engine package implements:
//   - The GameState model: players, ownership records, turn and waiting mode
//   - A closed set of commands applied by the pure Apply function
//   - Validation of commands and restored snapshots
//   - Rent and arrival resolution for property, station, utility and tax tiles
//   - Game setup presets (GameConfig) and the opening state they produce
//
// Core Types:
//
// Apply is the single transition entry point. It takes a state and a
// Command and returns a new state without touching its input. GameEngine
// wraps one canonical state for a game session and logs every dispatched
// command. Money transfers name both sides with a Party, which is either the
// Bank or a seated Player.
//
// Usage:
//
//	eng := engine.NewEngineWithDefaults()
//	eng.Dispatch(engine.RollDice{D1: 3, D2: 4})
//	eng.Dispatch(engine.PayRent{From: engine.Bank(), To: engine.Player(0), Amount: 200})
//	state := eng.GetState()
//
// Game Rules:
//
// Rent for a plain property is read from its rent table at the current
// improvement level. Stations charge 25 doubled for each further station the
// owner holds. Utilities charge the last dice total times 4, or times 10
// when the owner holds both. Tax tiles pay the listed amount to the bank.
// Balances may go negative; there is no bankruptcy rule. The
// awaiting-improvement-decision mode and the mortgaged flag are reserved.
//
// Sequencing rolls, movement and decisions over these commands is the job of
// the driver package.
package engine
