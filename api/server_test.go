package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/config"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
	"github.com/wricardo/monopoly-game/game/storage"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateGameFunc   func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetGameFunc      func(ctx context.Context, gameID string) (*service.SessionInfo, error)
	ListGamesFunc    func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteGameFunc   func(ctx context.Context, gameID string) error
	RollFunc         func(ctx context.Context, gameID string) (*driver.TurnResult, error)
	BuyFunc          func(ctx context.Context, gameID string) (*driver.TurnResult, error)
	SkipFunc         func(ctx context.Context, gameID string) (*driver.TurnResult, error)
	PlayAIFunc       func(ctx context.Context, gameID string) (*driver.TurnResult, error)
	GetGameStateFunc func(ctx context.Context, gameID string) (*engine.GameState, error)
	GetHistoryFunc   func(ctx context.Context, gameID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	SaveGameFunc     func(ctx context.Context, gameID string) (*storage.Record, error)
	SaveSnapshotFunc func(ctx context.Context, state engine.GameState) (*storage.Record, error)
	LoadSaveFunc     func(ctx context.Context, saveID string) (*storage.Record, error)
	ListSavesFunc    func(ctx context.Context) ([]*storage.Record, error)
	RestoreSaveFunc  func(ctx context.Context, saveID string) (*service.SessionInfo, error)
	ListConfigsFunc  func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc   func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc   func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateGame(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateGameFunc != nil {
		return m.CreateGameFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "ab12", ConfigID: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetGame(ctx context.Context, gameID string) (*service.SessionInfo, error) {
	if m.GetGameFunc != nil {
		return m.GetGameFunc(ctx, gameID)
	}
	return &service.SessionInfo{ID: gameID, ConfigID: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListGames(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListGamesFunc != nil {
		return m.ListGamesFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteGame(ctx context.Context, gameID string) error {
	if m.DeleteGameFunc != nil {
		return m.DeleteGameFunc(ctx, gameID)
	}
	return nil
}

func defaultTurn() *driver.TurnResult {
	state := engine.InitGameStateFromConfig(nil)
	return &driver.TurnResult{Player: 0, Dice: [2]int{2, 4}, Path: []int{1, 2, 3, 4, 5, 6}, State: &state}
}

func (m *MockGameService) Roll(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	if m.RollFunc != nil {
		return m.RollFunc(ctx, gameID)
	}
	return defaultTurn(), nil
}

func (m *MockGameService) Buy(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	if m.BuyFunc != nil {
		return m.BuyFunc(ctx, gameID)
	}
	return defaultTurn(), nil
}

func (m *MockGameService) Skip(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	if m.SkipFunc != nil {
		return m.SkipFunc(ctx, gameID)
	}
	return defaultTurn(), nil
}

func (m *MockGameService) PlayAI(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	if m.PlayAIFunc != nil {
		return m.PlayAIFunc(ctx, gameID)
	}
	return defaultTurn(), nil
}

func (m *MockGameService) GetGameState(ctx context.Context, gameID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, gameID)
	}
	state := engine.InitGameStateFromConfig(nil)
	return &state, nil
}

func (m *MockGameService) GetHistory(ctx context.Context, gameID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, gameID, opts)
	}
	return &service.HistoryResponse{Events: []driver.Event{}, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
}

func (m *MockGameService) GetBoard(ctx context.Context) []board.Tile {
	return board.All()
}

func (m *MockGameService) SaveGame(ctx context.Context, gameID string) (*storage.Record, error) {
	if m.SaveGameFunc != nil {
		return m.SaveGameFunc(ctx, gameID)
	}
	return &storage.Record{ID: "1", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) SaveSnapshot(ctx context.Context, state engine.GameState) (*storage.Record, error) {
	if m.SaveSnapshotFunc != nil {
		return m.SaveSnapshotFunc(ctx, state)
	}
	return &storage.Record{ID: "1", State: state, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) LoadSave(ctx context.Context, saveID string) (*storage.Record, error) {
	if m.LoadSaveFunc != nil {
		return m.LoadSaveFunc(ctx, saveID)
	}
	return &storage.Record{ID: saveID, State: engine.InitGameStateFromConfig(nil)}, nil
}

func (m *MockGameService) ListSaves(ctx context.Context) ([]*storage.Record, error) {
	if m.ListSavesFunc != nil {
		return m.ListSavesFunc(ctx)
	}
	return []*storage.Record{}, nil
}

func (m *MockGameService) RestoreSave(ctx context.Context, saveID string) (*service.SessionInfo, error) {
	if m.RestoreSaveFunc != nil {
		return m.RestoreSaveFunc(ctx, saveID)
	}
	return &service.SessionInfo{ID: "cd34"}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func setupTestServer(mockService *MockGameService) *Server {
	return NewServer(mockService, nil, nil)
}

func do(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func TestCreateGame(t *testing.T) {
	var gotConfig string
	mock := &MockGameService{
		CreateGameFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
			gotConfig = configName
			return &service.SessionInfo{ID: "ab12", ConfigID: "duel"}, nil
		},
	}
	server := setupTestServer(mock)

	rr := do(t, server, "POST", "/api/games", map[string]string{"config_id": "duel"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "duel", gotConfig)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var info service.SessionInfo
	decode(t, rr, &info)
	assert.Equal(t, "ab12", info.ID)

	t.Run("empty body uses default", func(t *testing.T) {
		rr := do(t, server, "POST", "/api/games", nil)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "", gotConfig)
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/games", strings.NewReader("{oops"))
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown preset", func(t *testing.T) {
		mock.CreateGameFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
		}
		rr := do(t, server, "POST", "/api/games", map[string]string{"config_id": "nope"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "configuration not found")
	})
}

func TestListGames(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListGamesFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-30 * time.Minute)},
			}, nil
		},
	}
	server := setupTestServer(mock)

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"default accessed desc", "", []string{"new", "mid", "old"}, 3},
		{"created asc", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"limit", "?limit=1", []string{"new"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, server, "GET", "/api/games"+tt.query, nil)
			require.Equal(t, http.StatusOK, rr.Code)

			var resp struct {
				Count int                    `json:"count"`
				Total int                    `json:"total"`
				Games []*service.SessionInfo `json:"games"`
			}
			decode(t, rr, &resp)

			ids := make([]string, len(resp.Games))
			for i, g := range resp.Games {
				ids[i] = g.ID
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.total, resp.Total)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestGameNotFound(t *testing.T) {
	notFound := func(ctx context.Context, id string) (*driver.TurnResult, error) {
		return nil, fmt.Errorf("%w: %s", service.ErrGameNotFound, id)
	}
	mock := &MockGameService{
		GetGameFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return nil, service.ErrGameNotFound
		},
		GetGameStateFunc: func(ctx context.Context, id string) (*engine.GameState, error) {
			return nil, service.ErrGameNotFound
		},
		DeleteGameFunc: func(ctx context.Context, id string) error { return service.ErrGameNotFound },
		RollFunc:       notFound,
		BuyFunc:        notFound,
		SkipFunc:       notFound,
		PlayAIFunc:     notFound,
	}
	server := setupTestServer(mock)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/games/zz99"},
		{"DELETE", "/api/games/zz99"},
		{"GET", "/api/games/zz99/state"},
		{"POST", "/api/games/zz99/roll"},
		{"POST", "/api/games/zz99/buy"},
		{"POST", "/api/games/zz99/skip"},
		{"POST", "/api/games/zz99/ai"},
	} {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := do(t, server, route.method, route.path, nil)
			assert.Equal(t, http.StatusNotFound, rr.Code)

			var body map[string]string
			decode(t, rr, &body)
			assert.Contains(t, body["error"], "game not found")
		})
	}
}

func TestTurnEndpoints(t *testing.T) {
	var calls []string
	record := func(name string) func(ctx context.Context, id string) (*driver.TurnResult, error) {
		return func(ctx context.Context, id string) (*driver.TurnResult, error) {
			calls = append(calls, name+":"+id)
			return defaultTurn(), nil
		}
	}
	mock := &MockGameService{
		RollFunc:   record("roll"),
		BuyFunc:    record("buy"),
		SkipFunc:   record("skip"),
		PlayAIFunc: record("ai"),
	}
	server := setupTestServer(mock)

	for _, action := range []string{"roll", "buy", "skip", "ai"} {
		rr := do(t, server, "POST", "/api/games/ab12/"+action, nil)
		require.Equal(t, http.StatusOK, rr.Code, action)

		var result driver.TurnResult
		decode(t, rr, &result)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, result.Path)
		assert.NotNil(t, result.State)
	}

	assert.Equal(t, []string{"roll:ab12", "buy:ab12", "skip:ab12", "ai:ab12"}, calls)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not awaiting roll", driver.ErrNotAwaitingRoll, http.StatusConflict},
		{"not awaiting decision", fmt.Errorf("wrapped: %w", driver.ErrNotAwaitingDecision), http.StatusConflict},
		{"not ai turn", driver.ErrNotAITurn, http.StatusConflict},
		{"insufficient funds", driver.ErrInsufficientFunds, http.StatusBadRequest},
		{"already owned", fmt.Errorf("wrapped: %w", engine.ErrAlreadyOwned), http.StatusConflict},
		{"not purchasable", engine.ErrNotPurchasable, http.StatusConflict},
		{"invalid property", engine.ErrInvalidProperty, http.StatusBadRequest},
		{"invalid state", service.ErrInvalidState, http.StatusBadRequest},
		{"invalid config", config.ErrInvalidConfig, http.StatusBadRequest},
		{"save not found", service.ErrSaveNotFound, http.StatusNotFound},
		{"storage disabled", service.ErrStorageDisabled, http.StatusServiceUnavailable},
		{"anything else", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				BuyFunc: func(ctx context.Context, id string) (*driver.TurnResult, error) {
					return nil, tt.err
				},
			}
			rr := do(t, setupTestServer(mock), "POST", "/api/games/ab12/buy", nil)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestGetHistory(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockGameService{
		GetHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Events: []driver.Event{{Type: driver.EventRoll}}, TotalEvents: 1, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
		},
	}
	server := setupTestServer(mock)

	rr := do(t, server, "GET", "/api/games/ab12/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)

	rr = do(t, server, "GET", "/api/games/ab12/history?page=2&limit=5&order=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}, got)

	rr = do(t, server, "GET", "/api/games/ab12/history?page=-1&limit=x&order=sideways", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)

	var resp service.HistoryResponse
	decode(t, rr, &resp)
	assert.Len(t, resp.Events, 1)
}

func TestBoard(t *testing.T) {
	rr := do(t, setupTestServer(&MockGameService{}), "GET", "/api/board", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var tiles []board.Tile
	decode(t, rr, &tiles)
	assert.Len(t, tiles, board.Size)
	assert.Equal(t, "GO", tiles[0].Name)
}

func TestConfigs(t *testing.T) {
	var savedID string
	var saved *engine.GameConfig
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", Players: 3}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, name string) (*engine.GameConfig, error) {
			if name != "classic" {
				return nil, service.ErrConfigNotFound
			}
			return engine.DefaultGameConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, name string, cfg *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(cfg); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}
			savedID, saved = name, cfg
			return nil
		},
	}
	server := setupTestServer(mock)

	t.Run("list", func(t *testing.T) {
		rr := do(t, server, "GET", "/api/configs", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var infos []service.ConfigInfo
		decode(t, rr, &infos)
		require.Len(t, infos, 1)
		assert.Equal(t, "classic", infos[0].ConfigID)
	})

	t.Run("get strips extension", func(t *testing.T) {
		rr := do(t, server, "GET", "/api/configs/classic.json", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var cfg engine.GameConfig
		decode(t, rr, &cfg)
		assert.Equal(t, "Classic", cfg.Name)
	})

	t.Run("get unknown", func(t *testing.T) {
		rr := do(t, server, "GET", "/api/configs/nope", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("create derives id from name", func(t *testing.T) {
		body := engine.DefaultGameConfig()
		body.Name = "House Rules"
		rr := do(t, server, "POST", "/api/configs", body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, "house_rules", savedID)
		assert.Equal(t, "House Rules", saved.Name)
		assert.Len(t, saved.Players, 3)
	})

	t.Run("create with explicit id", func(t *testing.T) {
		body := map[string]interface{}{
			"config_id":      "mine",
			"name":           "Mine",
			"description":    "two seats",
			"starting_money": 1000,
			"players":        []map[string]interface{}{{"name": "A", "color": "red"}, {"name": "B", "color": "blue", "ai": true}},
		}
		rr := do(t, server, "POST", "/api/configs", body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, "mine", savedID)
		assert.True(t, saved.Players[1].AI)
	})

	t.Run("create invalid", func(t *testing.T) {
		rr := do(t, server, "POST", "/api/configs", map[string]string{"name": "Broken"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("create without name", func(t *testing.T) {
		rr := do(t, server, "POST", "/api/configs", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSaves(t *testing.T) {
	var snapshot engine.GameState
	mock := &MockGameService{
		SaveSnapshotFunc: func(ctx context.Context, state engine.GameState) (*storage.Record, error) {
			if err := engine.ValidateState(state); err != nil {
				return nil, fmt.Errorf("%w: %v", service.ErrInvalidState, err)
			}
			snapshot = state
			return &storage.Record{ID: "7", State: state}, nil
		},
		LoadSaveFunc: func(ctx context.Context, id string) (*storage.Record, error) {
			if id != "7" {
				return nil, service.ErrSaveNotFound
			}
			return &storage.Record{ID: "7", State: snapshot}, nil
		},
		ListSavesFunc: func(ctx context.Context) ([]*storage.Record, error) {
			return []*storage.Record{{ID: "7"}}, nil
		},
		RestoreSaveFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return &service.SessionInfo{ID: "ef56", ConfigID: "classic"}, nil
		},
	}
	server := setupTestServer(mock)

	state := engine.InitGameStateFromConfig(nil)
	state.Players[0].Money = 1234

	rr := do(t, server, "POST", "/api/saves", state)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 1234, snapshot.Players[0].Money)

	rr = do(t, server, "POST", "/api/saves", map[string]interface{}{"players": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, server, "GET", "/api/saves/7", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var rec storage.Record
	decode(t, rr, &rec)
	assert.Equal(t, 1234, rec.State.Players[0].Money)

	rr = do(t, server, "GET", "/api/saves/8", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, server, "GET", "/api/saves", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":1`)

	rr = do(t, server, "POST", "/api/saves/7/restore", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "ef56")

	rr = do(t, server, "POST", "/api/games/ab12/save", nil)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestStorageDisabled(t *testing.T) {
	mock := &MockGameService{
		ListSavesFunc: func(ctx context.Context) ([]*storage.Record, error) {
			return nil, service.ErrStorageDisabled
		},
	}
	rr := do(t, setupTestServer(mock), "GET", "/api/saves", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestWebSocketWithoutHub(t *testing.T) {
	rr := do(t, setupTestServer(&MockGameService{}), "GET", "/ws?game=ab12", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealth(t *testing.T) {
	rr := do(t, setupTestServer(&MockGameService{}), "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "trace-1")
	rr := httptest.NewRecorder()
	setupTestServer(&MockGameService{}).ServeHTTP(rr, req)
	assert.Equal(t, "trace-1", rr.Header().Get("X-Request-ID"))
}
