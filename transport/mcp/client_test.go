package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
	"github.com/wricardo/monopoly-game/game/storage"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func newState() *engine.GameState {
	state := engine.InitGameStateFromConfig(nil)
	return &state
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall(context.Background(), "GET", "/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", response)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/health", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "game is not awaiting a roll"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "POST", "/api/games/x/roll", nil, nil)
		if err == nil || err.Error() != "game is not awaiting a roll" {
			t.Errorf("Expected API error message, got %v", err)
		}
	})

	t.Run("plain failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api/games", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error: 500") {
			t.Errorf("Expected 'API error: 500', got %v", err)
		}
	})
}

func TestClient_createGame(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/games" {
			t.Errorf("Expected POST /api/games, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "ab12",
			ConfigName: "Duel",
			GameState:  newState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateGame(context.Background(), callRequest("create_game", map[string]interface{}{"config_id": "duel"}))
	if err != nil {
		t.Fatalf("createGame failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "ab12") || !strings.Contains(text, "Duel") {
		t.Errorf("Expected game id and config in result, got: %s", text)
	}
	if gotBody["config_id"] != "duel" {
		t.Errorf("Expected config_id duel to be sent, got %v", gotBody)
	}
}

func TestClient_turnTools(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)

		state := newState()
		state.WaitingFor = engine.AwaitingPropertyDecision
		state.CurrentProperty = 6
		state.Players[0].Position = 6
		json.NewEncoder(w).Encode(driver.TurnResult{
			Player: 0,
			Dice:   [2]int{2, 4},
			Events: []driver.Event{
				{Type: driver.EventRoll, Message: "Player 1 rolled 2 + 4"},
				{Type: driver.EventMove, Message: "Player 1 moved to 1"},
				{Type: driver.EventOffer, Message: "Angel Islington is for sale at 100"},
			},
			State: state,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	for _, action := range []string{"roll", "buy", "skip", "ai"} {
		result, err := client.turnTool(action)(context.Background(), callRequest(action, map[string]interface{}{"game_id": "ab12"}))
		if err != nil {
			t.Fatalf("%s failed: %v", action, err)
		}
		if result.IsError {
			t.Fatalf("%s returned an error result: %s", action, resultText(t, result))
		}

		text := resultText(t, result)
		if !strings.Contains(text, "rolled 2 + 4") {
			t.Errorf("Expected roll event in output, got: %s", text)
		}
		if strings.Contains(text, "moved to 1") {
			t.Errorf("Expected move steps to be omitted, got: %s", text)
		}
		if !strings.Contains(text, "buy_property or skip_property") {
			t.Errorf("Expected decision hint, got: %s", text)
		}
		if !strings.Contains(text, "Offer: Angel Islington for $100") {
			t.Errorf("Expected offer line, got: %s", text)
		}
	}

	want := []string{"POST /api/games/ab12/roll", "POST /api/games/ab12/buy", "POST /api/games/ab12/skip", "POST /api/games/ab12/ai"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, paths)
	}
}

func TestClient_missingGameID(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	result, err := client.turnTool("roll")(context.Background(), callRequest("roll_dice", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "game_id is required") {
		t.Error("Expected game_id validation error")
	}

	result, _ = client.handleGameState(context.Background(), callRequest("game_state", nil))
	if !result.IsError {
		t.Error("Expected error result for nil arguments")
	}
}

func TestClient_saves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /api/games/ab12/save":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(storage.Record{ID: "3"})
		case "GET /api/saves":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"count": 1,
				"saves": []storage.Record{{ID: "3", State: *newState(), CreatedAt: time.Now()}},
			})
		case "GET /api/saves/3":
			json.NewEncoder(w).Encode(storage.Record{ID: "3", State: *newState(), CreatedAt: time.Now()})
		case "POST /api/saves/3/restore":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(service.SessionInfo{ID: "cd34", GameState: newState()})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "save not found"})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, _ := client.handleSaveGame(ctx, callRequest("save_game", map[string]interface{}{"game_id": "ab12"}))
	if text := resultText(t, result); !strings.Contains(text, "save 3") {
		t.Errorf("Expected save id, got: %s", text)
	}

	result, _ = client.handleLoadSave(ctx, callRequest("load_save", map[string]interface{}{}))
	if text := resultText(t, result); !strings.Contains(text, "- 3 ") || !strings.Contains(text, "3 players") {
		t.Errorf("Expected save listing, got: %s", text)
	}

	result, _ = client.handleLoadSave(ctx, callRequest("load_save", map[string]interface{}{"save_id": "3"}))
	if text := resultText(t, result); !strings.Contains(text, "Save 3") || !strings.Contains(text, "Player 1 $1500") {
		t.Errorf("Expected snapshot details, got: %s", text)
	}

	result, _ = client.handleLoadSave(ctx, callRequest("load_save", map[string]interface{}{"save_id": "9"}))
	if !result.IsError {
		t.Error("Expected error for unknown save")
	}

	result, _ = client.handleRestoreSave(ctx, callRequest("restore_save", map[string]interface{}{"save_id": "3"}))
	if text := resultText(t, result); !strings.Contains(text, "as game cd34") {
		t.Errorf("Expected restored game id, got: %s", text)
	}
}

func TestClient_gameInstructions(t *testing.T) {
	result, err := NewClient("http://127.0.0.1:1").handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"awaiting-roll", "play_ai_turn", "Super Tax"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions", want)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	state := newState()
	state.Turn = 1
	state.Players[0].Money = 1400
	state.Players[0].Position = 6
	state.Properties[6].Owner = 0
	state.Dice = [2]int{2, 4}
	state.LastRoll = 6

	result := formatGameState(state)

	for _, field := range []string{
		"Turn: Bot 1 (computer) | Waiting for: awaiting-roll",
		"Last roll: 2 + 4 = 6",
		"Player 1 $1400 on 6 Angel Islington | owns: Angel Islington",
		"> Bot 1 $1500 on 0 GO",
	} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in formatted output, got:\n%s", field, result)
		}
	}
}

func TestFormatGameState_Nil(t *testing.T) {
	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatHistory(t *testing.T) {
	if formatHistory(&service.HistoryResponse{}) != "No events yet" {
		t.Error("Expected placeholder for empty history")
	}

	history := &service.HistoryResponse{
		Events:      []driver.Event{{Type: driver.EventTax, Message: "Player 1 paid 200 Income Tax", Timestamp: time.Now()}},
		TotalEvents: 1,
		Page:        1,
		TotalPages:  1,
	}
	result := formatHistory(history)
	if !strings.Contains(result, "[tax] Player 1 paid 200 Income Tax") {
		t.Errorf("Unexpected history output: %s", result)
	}
}
