package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// apiClient talks to the game server's REST API
type apiClient struct {
	baseURL string
	client  *http.Client
}

func (c *apiClient) health() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}

func (c *apiClient) listConfigs() ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	if err := c.do(http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (c *apiClient) createGame(configID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	body := map[string]string{"config_id": configID}
	if err := c.do(http.MethodPost, "/api/games", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// turn posts one of roll, buy, skip or ai for the game
func (c *apiClient) turn(gameID, action string) (*driver.TurnResult, error) {
	var result driver.TurnResult
	if err := c.do(http.MethodPost, fmt.Sprintf("/api/games/%s/%s", gameID, action), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) state(gameID string) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/games/%s/state", gameID), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// eventsSince returns up to 100 of the game's newest events recorded after
// since, oldest first
func (c *apiClient) eventsSince(gameID string, since time.Time) ([]driver.Event, error) {
	var history service.HistoryResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/games/%s/history?limit=100&order=desc", gameID), nil, &history); err != nil {
		return nil, err
	}

	var events []driver.Event
	for i := len(history.Events) - 1; i >= 0; i-- {
		if e := history.Events[i]; e.Timestamp.After(since) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
