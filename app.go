package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/api"
	"github.com/wricardo/monopoly-game/game/config"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/service"
	"github.com/wricardo/monopoly-game/game/session"
	"github.com/wricardo/monopoly-game/game/storage"
	"github.com/wricardo/monopoly-game/internal/appconfig"
	"github.com/wricardo/monopoly-game/transport/mcp"
	"github.com/wricardo/monopoly-game/transport/websocket"
)

// syncInterval is how often in-memory sessions are checked against their
// files on disk.
const syncInterval = 5 * time.Second

// app holds the wired services shared by every command
type app struct {
	cfg         *appconfig.Config
	logger      *zap.Logger
	configs     *config.Manager
	persistence *session.FilePersistence
	sessions    *session.Manager
	store       storage.Store
	hub         *websocket.Hub
	service     service.GameService
}

// newApp wires presets, sessions, snapshot storage and the game service.
// Computer seats play on their own until ctx is done.
func newApp(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (*app, error) {
	configManager, err := config.NewManager(cfg.Game.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.Game.SessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, logger.Named("sessions"))
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", zap.Error(err))
	}

	a := &app{
		cfg:         cfg,
		logger:      logger,
		configs:     configManager,
		persistence: persistence,
		sessions:    sessionManager,
		hub:         websocket.NewHub(logger.Named("ws")),
	}

	opts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithNotifier(a.hub.Notify),
		service.WithAutoPlay(ctx, cfg.Game.BotDelay),
	}

	if cfg.Storage.Backend != appconfig.StorageNone {
		store, err := storage.Open(ctx, storage.Options{
			Backend:     cfg.Storage.Backend,
			Dir:         cfg.Storage.Dir,
			RedisURL:    cfg.Storage.RedisURL,
			DatabaseURL: cfg.Storage.DatabaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
		}
		a.store = store
		opts = append(opts, service.WithStore(store))
	}

	if cfg.Game.Pacing {
		opts = append(opts, service.WithPacer(driver.NewTimerPacer(driver.DefaultDelays())))
	}

	a.service = service.NewGameService(sessionManager, configManager, opts...)

	logger.Info("services ready",
		zap.String("config_dir", cfg.Game.ConfigDir),
		zap.String("sessions_dir", cfg.Game.SessionsDir),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("sessions", sessionManager.Count()),
		zap.Bool("pacing", cfg.Game.Pacing),
	)
	return a, nil
}

// start runs the hub and the session maintenance loops until ctx is done
func (a *app) start(ctx context.Context) {
	go a.hub.Run(ctx)
	go a.cleanupRoutine(ctx)
	go a.filesystemSyncRoutine(ctx)
}

// handler serves the REST API, the websocket and the MCP endpoint. baseURL
// is where MCP tool calls are proxied to.
func (a *app) handler(baseURL string) http.Handler {
	apiServer := api.NewServer(a.service, a.hub, a.logger.Named("api"))
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mux
}

// close flushes sessions to disk and releases the snapshot store
func (a *app) close() {
	if err := a.sessions.SaveAllSessions(); err != nil {
		a.logger.Error("failed to save sessions", zap.Error(err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close storage", zap.Error(err))
		}
	}
}

// cleanupRoutine removes sessions idle for longer than the configured TTL
func (a *app) cleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Game.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.sessions.CleanupExpiredSessions(a.cfg.Game.SessionTTL); removed > 0 {
				a.logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their file is gone
func (a *app) filesystemSyncRoutine(ctx context.Context) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pruneOrphans()
		}
	}
}

func (a *app) pruneOrphans() int {
	pruned := 0
	for _, s := range a.sessions.List() {
		if a.persistence.Exists(s.ID) {
			continue
		}
		if err := a.sessions.DeleteFromMemory(s.ID); err == nil {
			pruned++
			a.logger.Debug("pruned session with deleted file", zap.String("game_id", s.ID))
		}
	}
	if pruned > 0 {
		a.logger.Info("filesystem sync pruned sessions", zap.Int("pruned", pruned))
	}
	return pruned
}
