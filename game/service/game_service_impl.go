package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/storage"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	store     storage.Store
	pacer     driver.Pacer
	newRoller func() driver.Roller
	notify    Notifier
	logger    *zap.Logger

	// autoCtx bounds the background computer players; nil disables them
	autoCtx   context.Context
	autoDelay time.Duration
	autoMu    sync.Mutex
	autoBusy  map[string]bool
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithStore enables snapshots
func WithStore(store storage.Store) Option {
	return func(s *gameServiceImpl) { s.store = store }
}

// WithPacer sets the pacer used for every turn
func WithPacer(p driver.Pacer) Option {
	return func(s *gameServiceImpl) { s.pacer = p }
}

// WithRollerFactory sets how each new session gets its dice
func WithRollerFactory(f func() driver.Roller) Option {
	return func(s *gameServiceImpl) { s.newRoller = f }
}

// WithNotifier registers the turn event sink
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notify = n }
}

// WithAutoPlay makes computer seats act on their own: whenever a computer
// player is to act, a background loop plays its turns until a human seat is
// up. Consecutive turns are at least delay apart, and the loops start no
// new turn once ctx is done.
func WithAutoPlay(ctx context.Context, delay time.Duration) Option {
	return func(s *gameServiceImpl) {
		s.autoCtx = ctx
		s.autoDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = l }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		pacer:    driver.NoPacer{},
		newRoller: func() driver.Roller {
			return driver.NewRandomRoller(uint64(time.Now().UnixNano()))
		},
		logger:   zap.NewNop(),
		autoBusy: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID maps a preset display name back to its id
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) resolveConfig(configName string) (string, *engine.GameConfig, error) {
	if configName == "" {
		config := s.configs.GetDefault()
		return s.getConfigID(config.Name), config, nil
	}

	config, err := s.configs.LoadConfig(configName)
	if err == nil {
		return configName, config, nil
	}
	if errors.Is(err, ErrConfigNotFound) {
		if available, listErr := s.configs.ListConfigs(); listErr == nil && len(available) > 0 {
			ids := make([]string, 0, len(available))
			for _, cfg := range available {
				ids = append(ids, cfg.ConfigID)
			}
			return "", nil, fmt.Errorf("%w: %q, available configs: %v", ErrConfigNotFound, configName, ids)
		}
	}
	return "", nil, fmt.Errorf("failed to load config %s: %w", configName, err)
}

// withSession runs fn holding the session lock
func (s *gameServiceImpl) withSession(gameID string, fn func(sess *Session) error) error {
	sess, err := s.sessions.Get(gameID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()
	sess.Touch()
	err = fn(sess)
	s.startBots(sess)
	return err
}

func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.logger.Warn("failed to persist session", zap.String("game", sess.ID), zap.Error(err))
	}
}

// CreateGame starts a new game from a preset
func (s *gameServiceImpl) CreateGame(ctx context.Context, configName string) (*SessionInfo, error) {
	configID, config, err := s.resolveConfig(configName)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()
	s.logger.Info("game created", zap.String("game", sess.ID), zap.String("config", configID))
	s.startBots(sess)
	return sess.info(), nil
}

// GetGame retrieves game information
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*SessionInfo, error) {
	var info *SessionInfo
	err := s.withSession(gameID, func(sess *Session) error {
		info = sess.info()
		return nil
	})
	return info, err
}

// ListGames returns all active games
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sess.info())
		sess.Unlock()
	}

	return result, nil
}

// DeleteGame removes a game
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.sessions.Delete(gameID); err != nil {
		return err
	}
	s.logger.Info("game deleted", zap.String("game", gameID))
	return nil
}

func (s *gameServiceImpl) driverFor(sess *Session) *driver.Driver {
	if sess.Roller == nil {
		sess.Roller = s.newRoller()
	}
	return driver.New(sess.Engine,
		driver.WithRoller(sess.Roller),
		driver.WithPacer(s.pacer),
		driver.WithPolicy(driver.ThresholdPolicy{Factor: sess.Config.BuyFactor()}),
		driver.WithSalary(sess.Config.SalaryAmount()),
		driver.WithLogger(s.logger.With(zap.String("game", sess.ID))),
		driver.WithListener(func(e driver.Event) {
			sess.AppendHistory(e)
			if s.notify != nil {
				s.notify(sess.ID, e, sess.Engine.GetState())
			}
		}),
	)
}

// play runs one driver action. Turns are detached from request
// cancellation so a dropped client cannot strand a game mid-move.
func (s *gameServiceImpl) play(ctx context.Context, gameID string, action func(context.Context, *driver.Driver) (*driver.TurnResult, error)) (*driver.TurnResult, error) {
	var res *driver.TurnResult
	err := s.withSession(gameID, func(sess *Session) error {
		var err error
		res, err = action(context.WithoutCancel(ctx), s.driverFor(sess))
		if res != nil {
			s.persist(sess)
		}
		return err
	})
	return res, err
}

// botToAct reports whether a computer seat can act right now
func botToAct(sess *Session) bool {
	state := sess.Engine.GetState()
	player, ok := state.ActivePlayer()
	if !ok || !player.IsAI {
		return false
	}
	return state.WaitingFor == engine.AwaitingRoll || state.WaitingFor == engine.AwaitingPropertyDecision
}

// startBots launches the computer player loop for sess unless one is
// already running. The caller holds the session lock.
func (s *gameServiceImpl) startBots(sess *Session) {
	if s.autoCtx == nil || s.autoCtx.Err() != nil || !botToAct(sess) {
		return
	}

	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	if s.autoBusy[sess.ID] {
		return
	}
	s.autoBusy[sess.ID] = true
	go s.runBots(sess.ID)
}

func (s *gameServiceImpl) stopBots(gameID string) {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	delete(s.autoBusy, gameID)
}

// runBots plays computer turns one at a time, each under the session lock,
// until a human is to act, the game is gone or autoCtx is done. The loop
// leaves while holding the lock so a human action that follows always sees
// it stopped and can start a new one.
func (s *gameServiceImpl) runBots(gameID string) {
	logger := s.logger.With(zap.String("game", gameID))
	turnCtx := context.WithoutCancel(s.autoCtx)

	for {
		sess, err := s.sessions.Get(gameID)
		if err != nil {
			s.stopBots(gameID)
			return
		}

		sess.Lock()
		if s.autoCtx.Err() != nil || !botToAct(sess) {
			s.stopBots(gameID)
			sess.Unlock()
			return
		}

		sess.Touch()
		res, err := s.driverFor(sess).PlayAITurn(turnCtx)
		if res != nil {
			s.persist(sess)
		}
		if err != nil {
			logger.Warn("computer turn failed", zap.Error(err))
			s.stopBots(gameID)
			sess.Unlock()
			return
		}
		sess.Unlock()

		if s.autoDelay > 0 {
			select {
			case <-s.autoCtx.Done():
			case <-time.After(s.autoDelay):
			}
		}
	}
}

// Roll plays the active player's roll
func (s *gameServiceImpl) Roll(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	return s.play(ctx, gameID, func(ctx context.Context, d *driver.Driver) (*driver.TurnResult, error) {
		return d.Roll(ctx)
	})
}

// Buy confirms the pending purchase
func (s *gameServiceImpl) Buy(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	return s.play(ctx, gameID, func(ctx context.Context, d *driver.Driver) (*driver.TurnResult, error) {
		return d.ConfirmPurchase(ctx)
	})
}

// Skip declines the pending purchase
func (s *gameServiceImpl) Skip(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	return s.play(ctx, gameID, func(ctx context.Context, d *driver.Driver) (*driver.TurnResult, error) {
		return d.DeclinePurchase(ctx)
	})
}

// PlayAI lets the active computer player act
func (s *gameServiceImpl) PlayAI(ctx context.Context, gameID string) (*driver.TurnResult, error) {
	return s.play(ctx, gameID, func(ctx context.Context, d *driver.Driver) (*driver.TurnResult, error) {
		return d.PlayAITurn(ctx)
	})
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, gameID string) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.withSession(gameID, func(sess *Session) error {
		state = sess.Engine.GetState()
		return nil
	})
	return state, err
}

// GetHistory returns paginated turn events
func (s *gameServiceImpl) GetHistory(ctx context.Context, gameID string, opts HistoryOptions) (*HistoryResponse, error) {
	var history []driver.Event
	err := s.withSession(gameID, func(sess *Session) error {
		history = append([]driver.Event(nil), sess.History...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	events := []driver.Event{}
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			events = append(events, history[i])
		}
	} else if start < total {
		events = append(events, history[start:end]...)
	}

	return &HistoryResponse{
		Events:      events,
		TotalEvents: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// GetBoard returns the tile catalog
func (s *gameServiceImpl) GetBoard(ctx context.Context) []board.Tile {
	return board.All()
}

// SaveGame snapshots a live game between turns
func (s *gameServiceImpl) SaveGame(ctx context.Context, gameID string) (*storage.Record, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var rec *storage.Record
	err := s.withSession(gameID, func(sess *Session) error {
		var err error
		rec, err = s.store.Save(ctx, *sess.Engine.GetState())
		if err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game saved", zap.String("game", gameID), zap.String("save", rec.ID))
	return rec, nil
}

// SaveSnapshot stores a caller-supplied state
func (s *gameServiceImpl) SaveSnapshot(ctx context.Context, state engine.GameState) (*storage.Record, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if err := engine.ValidateState(state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	rec, err := s.store.Save(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return rec, nil
}

// LoadSave fetches a snapshot
func (s *gameServiceImpl) LoadSave(ctx context.Context, saveID string) (*storage.Record, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	rec, err := s.store.Load(ctx, saveID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSaveNotFound, saveID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	return rec, nil
}

// ListSaves returns every snapshot
func (s *gameServiceImpl) ListSaves(ctx context.Context) ([]*storage.Record, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return records, nil
}

// RestoreSave starts a new live game from a snapshot. The preset is found
// by the display name recorded in the state, falling back to the default.
func (s *gameServiceImpl) RestoreSave(ctx context.Context, saveID string) (*SessionInfo, error) {
	rec, err := s.LoadSave(ctx, saveID)
	if err != nil {
		return nil, err
	}

	configID := s.getConfigID(rec.State.ConfigName)
	config, err := s.configs.LoadConfig(configID)
	if err != nil {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	state := rec.State
	if err := sess.Engine.SetState(&state); err != nil {
		if delErr := s.sessions.Delete(sess.ID); delErr != nil {
			s.logger.Warn("failed to discard restored session", zap.String("game", sess.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	s.persist(sess)

	s.logger.Info("save restored", zap.String("save", saveID), zap.String("game", sess.ID))
	s.startBots(sess)
	return sess.info(), nil
}

// ListConfigs returns available setup presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific setup preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig writes a setup preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
