package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
	"github.com/wricardo/monopoly-game/game/storage"
)

// Version is reported to MCP clients during initialization
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// an AI turn with pacing enabled can take several seconds
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Monopoly Game",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Monopoly Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A game is a table of 2 to 8 players going around a 40 tile board. On each
turn the active player rolls two dice, moves, collects salary when passing GO
and resolves the tile: buy an unowned property, pay rent to its owner, or pay
tax to the bank.

TYPICAL LOOP:
1. create_game (optional config_id, see list_configs)
2. game_state to see whose turn it is and what the game waits for
3. awaiting-roll + human player: roll_dice
   awaiting-roll + computer player: the server plays it, check game_state
   again (play_ai_turn forces the move)
4. awaiting-property-decision: buy_property or skip_property

AVAILABLE TOOLS:
- create_game, list_games, game_state, turn_history
- roll_dice, buy_property, skip_property, play_ai_turn
- save_game, load_save, restore_save
- board, list_configs, game_instructions`),
	)

	c.registerTools()
}

func gameIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"game_id": map[string]interface{}{
			"type":        "string",
			"description": "Game ID returned by create_game",
		},
	}
}

func (c *Client) registerTools() {
	// Games
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game, optionally from a named preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, e.g. classic, duel, bots (optional)",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the players, ownership and waiting mode of a game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: gameIDSchema(),
			Required:   []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "List recent turn events of a game, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDSchema()["game_id"],
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Number of events to return (default 20)",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleHistory)

	// Turns
	for _, tool := range []struct {
		name, description, action string
	}{
		{"roll_dice", "Roll the dice for the active player and move", "roll"},
		{"buy_property", "Buy the property the active player is standing on", "buy"},
		{"skip_property", "Decline to buy the offered property", "skip"},
		{"play_ai_turn", "Let the computer play the active computer player's turn", "ai"},
	} {
		c.mcpServer.AddTool(mcp.Tool{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: gameIDSchema(),
				Required:   []string{"game_id"},
			},
		}, c.turnTool(tool.action))
	}

	// Snapshots
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_game",
		Description: "Snapshot a game to storage and return the save ID",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: gameIDSchema(),
			Required:   []string{"game_id"},
		},
	}, c.handleSaveGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "load_save",
		Description: "Show a stored snapshot, or list all snapshots when save_id is omitted",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"save_id": map[string]interface{}{
					"type":        "string",
					"description": "Save ID returned by save_game (optional)",
				},
			},
		},
	}, c.handleLoadSave)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restore_save",
		Description: "Start a new live game from a stored snapshot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"save_id": map[string]interface{}{
					"type":        "string",
					"description": "Save ID to restore",
				},
			},
			Required: []string{"save_id"},
		},
	}, c.handleRestoreSave)

	// Reference
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board",
		Description: "List the 40 board tiles with prices and rents",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Explain the rules and how to drive a game through the tools",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func requiredString(args map[string]interface{}, key string) (string, *mcp.CallToolResult) {
	v, _ := args[key].(string)
	if strings.TrimSpace(v) == "" {
		return "", mcp.NewToolResultError(key + " is required")
	}
	return strings.TrimSpace(v), nil
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var game service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/games", body, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created game: %s\nConfig: %s\n\n%s",
		game.ID, game.ConfigName, formatGameState(game.GameState))), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Games []*service.SessionInfo `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", "/api/games", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Games) == 0 {
		return mcp.NewToolResultText("No live games. Use create_game to start one."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d live games:\n", len(resp.Games))
	for _, g := range resp.Games {
		line := fmt.Sprintf("- %s (%s)", g.ID, g.ConfigName)
		if g.GameState != nil {
			if p, ok := g.GameState.ActivePlayer(); ok {
				line += fmt.Sprintf(" turn: %s, %s", p.Name, g.GameState.WaitingFor)
			}
		}
		b.WriteString(line + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, errResult := requiredString(arguments(request), "game_id")
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", "/api/games/"+gameID+"/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, errResult := requiredString(args, "game_id")
	if errResult != nil {
		return errResult, nil
	}

	limit := 20
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/games/%s/history?limit=%d", gameID, limit), nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

// turnTool proxies one of the turn endpoints
func (c *Client) turnTool(action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		gameID, errResult := requiredString(arguments(request), "game_id")
		if errResult != nil {
			return errResult, nil
		}

		var result driver.TurnResult
		if err := c.apiCall(ctx, "POST", "/api/games/"+gameID+"/"+action, nil, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatTurnResult(&result)), nil
	}
}

func (c *Client) handleSaveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, errResult := requiredString(arguments(request), "game_id")
	if errResult != nil {
		return errResult, nil
	}

	var rec storage.Record
	if err := c.apiCall(ctx, "POST", "/api/games/"+gameID+"/save", nil, &rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved game %s as save %s", gameID, rec.ID)), nil
}

func (c *Client) handleLoadSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	saveID, _ := arguments(request)["save_id"].(string)

	if saveID == "" {
		var resp struct {
			Saves []*storage.Record `json:"saves"`
		}
		if err := c.apiCall(ctx, "GET", "/api/saves", nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(resp.Saves) == 0 {
			return mcp.NewToolResultText("No saves yet. Use save_game to create one."), nil
		}
		var b strings.Builder
		for _, rec := range resp.Saves {
			fmt.Fprintf(&b, "- %s %s (%d players)\n", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05"), len(rec.State.Players))
		}
		return mcp.NewToolResultText(b.String()), nil
	}

	var rec storage.Record
	if err := c.apiCall(ctx, "GET", "/api/saves/"+saveID, nil, &rec); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Save %s (%s)\n\n%s",
		rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05"), formatGameState(&rec.State))), nil
}

func (c *Client) handleRestoreSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	saveID, errResult := requiredString(arguments(request), "save_id")
	if errResult != nil {
		return errResult, nil
	}

	var game service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/saves/"+saveID+"/restore", nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Restored save %s as game %s\n\n%s",
		saveID, game.ID, formatGameState(game.GameState))), nil
}

func (c *Client) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var tiles []board.Tile
	if err := c.apiCall(ctx, "GET", "/api/board", nil, &tiles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	for _, t := range tiles {
		fmt.Fprintf(&b, "%2d %-22s %-8s", t.Position, t.Name, t.Category)
		if t.Price > 0 {
			fmt.Fprintf(&b, " $%d", t.Price)
		}
		if len(t.Rent) > 0 {
			fmt.Fprintf(&b, " rent %d", t.Rent[0])
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available presets:\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s, %d players, $%d start, $%d salary\n",
			cfg.ConfigID, cfg.Description, cfg.Players, cfg.StartingMoney, cfg.Salary)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `MONOPOLY GAME RULES

BOARD
40 tiles numbered 0 to 39. Tile 0 is GO. Tokens move clockwise and wrap
from 39 to 0.

TURN
1. The active player rolls two six-sided dice and moves that many tiles.
2. Passing or landing on GO pays the configured salary (200 by default).
3. The tile the token stops on is resolved:
   - unowned property, station or utility: the player may buy it for its
     price. The game waits in awaiting-property-decision until buy_property
     or skip_property. Buying needs enough money.
   - owned by another player: rent is paid to the owner.
       property: the tile's base rent
       station:  25, 50, 100 or 200 for 1 to 4 stations owned
       utility:  4x the dice total, 10x when both utilities are owned
   - owned by the player: nothing happens.
   - Income Tax (4, $200) and Super Tax (38, $100): paid to the bank.
   - GO, Jail, Free Parking, Go To Jail, Chance, Community Chest: no effect.
4. The turn passes to the next player.

COMPUTER PLAYERS
The server plays computer turns by itself, one after another, until a human
player is to act. play_ai_turn forces the active computer's move right away.
A computer buys an offered property when its money exceeds the preset's buy
factor times the price (1.5 by default).

WAITING MODES
- awaiting-roll: call roll_dice (human) or wait for the computer
- awaiting-property-decision: call buy_property or skip_property
- animating-movement: a move is being played, try again shortly

Money can go negative; there is no bankruptcy.`

// Formatting helpers

func playerName(state *engine.GameState, id int) string {
	if state != nil && id >= 0 && id < len(state.Players) {
		return state.Players[id].Name
	}
	return fmt.Sprintf("player %d", id)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	if p, ok := state.ActivePlayer(); ok {
		kind := "human"
		if p.IsAI {
			kind = "computer"
		}
		fmt.Fprintf(&b, "Turn: %s (%s) | Waiting for: %s\n", p.Name, kind, state.WaitingFor)
	}
	if state.LastRoll > 0 {
		fmt.Fprintf(&b, "Last roll: %d + %d = %d\n", state.Dice[0], state.Dice[1], state.LastRoll)
	}
	if state.WaitingFor == engine.AwaitingPropertyDecision && state.CurrentProperty >= 0 && state.CurrentProperty < board.Size {
		t := board.Get(state.CurrentProperty)
		fmt.Fprintf(&b, "Offer: %s for $%d\n", t.Name, t.Price)
	}

	b.WriteString("\nPlayers:\n")
	for _, p := range state.Players {
		marker := " "
		if p.ID == state.Turn {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %s $%d on %d %s", marker, p.Name, p.Money, p.Position, board.Get(p.Position).Name)
		if owned := state.OwnedBy(p.ID); len(owned) > 0 {
			names := make([]string, len(owned))
			for i, pos := range owned {
				names[i] = board.Get(pos).Name
			}
			fmt.Fprintf(&b, " | owns: %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatTurnResult(result *driver.TurnResult) string {
	var b strings.Builder

	for _, e := range result.Events {
		// per-step moves are noise for an agent
		if e.Type == driver.EventMove {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", e.Message)
	}

	if result.TurnOver {
		b.WriteString("Turn over.\n")
	} else if result.State != nil && result.State.WaitingFor == engine.AwaitingPropertyDecision {
		b.WriteString("Decide: buy_property or skip_property.\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	if len(history.Events) == 0 {
		return "No events yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Events (page %d of %d, %d total):\n", history.Page, history.TotalPages, history.TotalEvents)
	for _, e := range history.Events {
		fmt.Fprintf(&b, "%s [%s] %s\n", e.Timestamp.Format("15:04:05"), e.Type, e.Message)
	}
	return b.String()
}
