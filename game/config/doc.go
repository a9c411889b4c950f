// Package config manages game setup presets.
//
// A preset is a JSON file in the configs directory. Its file name without
// the extension is the preset id used when creating a game:
//
//	{
//	  "name": "Classic",
//	  "description": "One human player against two bots",
//	  "starting_money": 1500,
//	  "salary": 200,
//	  "ai_buy_factor": 1.5,
//	  "players": [
//	    {"name": "Player 1", "color": "red", "ai": false},
//	    {"name": "Bot 1", "color": "blue", "ai": true}
//	  ]
//	}
//
// Presets are validated on load and cached. The default is classic.json,
// falling back to the first valid preset and then to the built-in table.
//
//	manager, err := config.NewManager("configs")
//	preset, err := manager.LoadConfig("duel")
//	presets, err := manager.ListConfigs()
package config
