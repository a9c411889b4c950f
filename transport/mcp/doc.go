// Package mcp exposes the game to AI agents through the Model Context
// Protocol.
//
// Client registers one MCP tool per game operation and proxies every call
// to the REST API, so an agent plays exactly the games that browsers and
// the console client see:
//
//	create_game, list_games, game_state, turn_history,
//	roll_dice, buy_property, skip_property, play_ai_turn,
//	save_game, load_save, restore_save,
//	board, list_configs, game_instructions
//
// Tool results are plain text tuned for a language model: each turn is
// summarized as its events (individual movement steps omitted) followed by
// the table.
//
// The same server is served over stdio by the "mcp" command and over HTTP
// at /mcp by the "server" command:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
