package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/engine"
)

var (
	ErrNotAwaitingRoll     = errors.New("game is not awaiting a roll")
	ErrNotAwaitingDecision = errors.New("game is not awaiting a property decision")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotAITurn           = errors.New("active player is not computer controlled")
)

// Engine is the part of the game engine the driver needs
type Engine interface {
	GetState() *engine.GameState
	Dispatch(cmd engine.Command) *engine.GameState
}

// TurnResult summarises what one driver call did
type TurnResult struct {
	Player   int               `json:"player"`
	Dice     [2]int            `json:"dice"`
	Path     []int             `json:"path,omitempty"`
	Arrival  *engine.Arrival   `json:"arrival,omitempty"`
	Bought   bool              `json:"bought"`
	TurnOver bool              `json:"turn_over"`
	Events   []Event           `json:"events"`
	State    *engine.GameState `json:"state"`
}

// Driver sequences engine commands into whole turns: roll, step-by-step
// movement with salary on GO, arrival resolution, the purchase decision and
// the hand-over to the next player. It is not safe for concurrent use.
type Driver struct {
	eng       Engine
	roller    Roller
	pacer     Pacer
	policy    BuyPolicy
	salary    int
	listeners []Listener
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Driver
type Option func(*Driver)

// WithRoller sets the dice source
func WithRoller(r Roller) Option {
	return func(d *Driver) { d.roller = r }
}

// WithPacer sets the presentation pacer
func WithPacer(p Pacer) Option {
	return func(d *Driver) { d.pacer = p }
}

// WithPolicy sets the purchase policy for computer players
func WithPolicy(p BuyPolicy) Option {
	return func(d *Driver) { d.policy = p }
}

// WithSalary sets the amount paid for landing on or passing GO
func WithSalary(amount int) Option {
	return func(d *Driver) { d.salary = amount }
}

// WithListener registers an event listener
func WithListener(l Listener) Option {
	return func(d *Driver) { d.listeners = append(d.listeners, l) }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New returns a driver for eng. Without options it rolls from a time-seeded
// source, never pauses, pays a salary of 200 and buys with the 1.5x policy.
func New(eng Engine, opts ...Option) *Driver {
	d := &Driver{
		eng:    eng,
		pacer:  NoPacer{},
		policy: ThresholdPolicy{Factor: engine.DefaultAIBuyFactor},
		salary: engine.DefaultSalary,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.roller == nil {
		d.roller = NewRandomRoller(uint64(d.now().UnixNano()))
	}
	return d
}

// turn accumulates the result of one driver call
type turn struct {
	res    *TurnResult
	player engine.PlayerState
}

func (d *Driver) begin(player engine.PlayerState) *turn {
	return &turn{
		player: player,
		res:    &TurnResult{Player: player.ID, Events: []Event{}},
	}
}

func (d *Driver) emit(t *turn, e Event) {
	e.Player = t.player.ID
	e.Timestamp = d.now()
	t.res.Events = append(t.res.Events, e)
	for _, l := range d.listeners {
		l(e)
	}
}

func (d *Driver) dispatch(cmd engine.Command) *engine.GameState {
	d.logger.Debug("dispatch", zap.String("kind", cmd.Kind()), zap.Any("command", cmd))
	return d.eng.Dispatch(cmd)
}

func (d *Driver) finish(t *turn) *TurnResult {
	t.res.State = d.eng.GetState()
	return t.res
}

// Roll plays the active player's roll: dice, movement and arrival. For a
// computer player the purchase decision and the turn hand-over follow
// immediately. For a human player facing an unowned tile the game stops in
// awaiting-property-decision until ConfirmPurchase or DeclinePurchase.
func (d *Driver) Roll(ctx context.Context) (*TurnResult, error) {
	state := d.eng.GetState()
	if state.WaitingFor != engine.AwaitingRoll {
		return nil, fmt.Errorf("%w: %s", ErrNotAwaitingRoll, state.WaitingFor)
	}
	player, ok := state.ActivePlayer()
	if !ok {
		return nil, fmt.Errorf("%w: turn %d", engine.ErrInvalidPlayer, state.Turn)
	}

	t := d.begin(player)

	d1, d2 := d.roller.Roll()
	d.dispatch(engine.RollDice{D1: d1, D2: d2})
	t.res.Dice = [2]int{d1, d2}
	d.emit(t, Event{
		Type:     EventRoll,
		Position: player.Position,
		Amount:   d1 + d2,
		Dice:     t.res.Dice,
		Message:  fmt.Sprintf("%s rolled %d + %d", player.Name, d1, d2),
	})

	d.dispatch(engine.WaitFor(engine.AnimatingMovement))
	if err := d.move(ctx, t, player.Position, d1+d2); err != nil {
		return d.finish(t), err
	}
	if err := d.pacer.Pause(ctx, DelayArrival); err != nil {
		return d.finish(t), err
	}

	return d.resolve(ctx, t)
}

// move advances the token one tile at a time, paying salary whenever the
// new position is GO
func (d *Driver) move(ctx context.Context, t *turn, from, steps int) error {
	pos := from
	for i := 0; i < steps; i++ {
		pos = board.Wrap(pos + 1)
		if pos == 0 && d.salary > 0 {
			d.dispatch(engine.PayRent{From: engine.Bank(), To: engine.Player(t.player.ID), Amount: d.salary})
			d.emit(t, Event{
				Type:     EventSalary,
				Position: pos,
				Amount:   d.salary,
				Message:  fmt.Sprintf("%s collected %d for passing GO", t.player.Name, d.salary),
			})
		}
		d.dispatch(engine.MovePlayer{PlayerID: t.player.ID, Position: pos})
		t.res.Path = append(t.res.Path, pos)
		d.emit(t, Event{
			Type:     EventMove,
			Position: pos,
			Message:  fmt.Sprintf("%s moved to %s", t.player.Name, board.Get(pos).Name),
		})
		if err := d.pacer.Pause(ctx, DelayStep); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) resolve(ctx context.Context, t *turn) (*TurnResult, error) {
	state := d.eng.GetState()
	player := state.Players[t.player.ID]
	t.player = player

	arrival := engine.ResolveArrival(*state, player.ID)
	t.res.Arrival = &arrival

	switch arrival.Kind {
	case engine.ArrivalOffer:
		d.dispatch(engine.WaitForProperty(engine.AwaitingPropertyDecision, arrival.Position))
		d.emit(t, Event{
			Type:     EventOffer,
			Position: arrival.Position,
			Amount:   arrival.Price,
			Message:  fmt.Sprintf("%s is for sale at %d", arrival.Tile, arrival.Price),
		})
		if !player.IsAI {
			return d.finish(t), nil
		}
		return d.decide(ctx, t)

	case engine.ArrivalRent:
		if arrival.Amount > 0 {
			d.dispatch(engine.PayRent{From: engine.Player(player.ID), To: engine.Player(arrival.Owner), Amount: arrival.Amount})
			d.emit(t, Event{
				Type:     EventRent,
				Position: arrival.Position,
				Amount:   arrival.Amount,
				Target:   arrival.Owner,
				Message:  fmt.Sprintf("%s paid %d rent to %s", player.Name, arrival.Amount, state.Players[arrival.Owner].Name),
			})
			if err := d.pacer.Pause(ctx, DelayRent); err != nil {
				return d.finish(t), err
			}
		}

	case engine.ArrivalTax:
		d.dispatch(engine.PayRent{From: engine.Player(player.ID), To: engine.Bank(), Amount: arrival.Amount})
		d.emit(t, Event{
			Type:     EventTax,
			Position: arrival.Position,
			Amount:   arrival.Amount,
			Message:  fmt.Sprintf("%s paid %d %s", player.Name, arrival.Amount, arrival.Tile),
		})
		if err := d.pacer.Pause(ctx, DelayRent); err != nil {
			return d.finish(t), err
		}
	}

	return d.endTurn(ctx, t)
}

// decide applies the buy policy for a computer player facing an offer
func (d *Driver) decide(ctx context.Context, t *turn) (*TurnResult, error) {
	state := d.eng.GetState()
	tile := board.Get(state.CurrentProperty)
	player := state.Players[t.player.ID]

	if err := engine.Validate(*state, engine.BuyProperty{PropertyIdx: tile.Position, Price: tile.Price}); err != nil {
		return nil, err
	}
	if err := d.pacer.Pause(ctx, DelayDecision); err != nil {
		return d.finish(t), err
	}

	if d.policy.ShouldBuy(player, tile) {
		d.buy(t, tile)
	} else {
		d.emit(t, Event{
			Type:     EventDecline,
			Position: tile.Position,
			Amount:   tile.Price,
			Message:  fmt.Sprintf("%s passed on %s", player.Name, tile.Name),
		})
	}

	return d.endTurn(ctx, t)
}

func (d *Driver) buy(t *turn, tile board.Tile) {
	state := d.dispatch(engine.BuyProperty{PropertyIdx: tile.Position, Price: tile.Price})
	if state.Properties[tile.Position].Owner != t.player.ID {
		return
	}
	t.res.Bought = true
	d.emit(t, Event{
		Type:     EventPurchase,
		Position: tile.Position,
		Amount:   tile.Price,
		Message:  fmt.Sprintf("%s bought %s for %d", t.player.Name, tile.Name, tile.Price),
	})
}

func (d *Driver) endTurn(ctx context.Context, t *turn) (*TurnResult, error) {
	if err := d.pacer.Pause(ctx, DelayTurnEnd); err != nil {
		return d.finish(t), err
	}

	state := d.dispatch(engine.NextTurn{})
	t.res.TurnOver = true
	next, _ := state.ActivePlayer()
	d.emit(t, Event{
		Type:     EventTurn,
		Position: next.Position,
		Target:   next.ID,
		Message:  fmt.Sprintf("%s to play", next.Name),
	})

	d.logger.Info("turn finished",
		zap.Int("player", t.player.ID),
		zap.Ints("dice", t.res.Dice[:]),
		zap.Bool("bought", t.res.Bought),
		zap.Int("next", next.ID),
	)
	return d.finish(t), nil
}

// pendingDecision returns the active player and offered tile when the game
// is blocked on a purchase decision
func (d *Driver) pendingDecision() (engine.PlayerState, board.Tile, error) {
	state := d.eng.GetState()
	if state.WaitingFor != engine.AwaitingPropertyDecision || !state.HasCurrentProperty() {
		return engine.PlayerState{}, board.Tile{}, fmt.Errorf("%w: %s", ErrNotAwaitingDecision, state.WaitingFor)
	}
	player, ok := state.ActivePlayer()
	if !ok {
		return engine.PlayerState{}, board.Tile{}, fmt.Errorf("%w: turn %d", engine.ErrInvalidPlayer, state.Turn)
	}
	return player, board.Get(state.CurrentProperty), nil
}

// ConfirmPurchase buys the offered property for the active player and ends
// the turn. With too little cash it returns ErrInsufficientFunds and leaves
// the decision open.
func (d *Driver) ConfirmPurchase(ctx context.Context) (*TurnResult, error) {
	player, tile, err := d.pendingDecision()
	if err != nil {
		return nil, err
	}

	cmd := engine.BuyProperty{PropertyIdx: tile.Position, Price: tile.Price}
	if err := engine.Validate(*d.eng.GetState(), cmd); err != nil {
		return nil, err
	}
	if player.Money < tile.Price {
		return nil, fmt.Errorf("%w: %s costs %d, %s has %d", ErrInsufficientFunds, tile.Name, tile.Price, player.Name, player.Money)
	}

	t := d.begin(player)
	d.buy(t, tile)
	return d.endTurn(ctx, t)
}

// DeclinePurchase passes on the offered property and ends the turn
func (d *Driver) DeclinePurchase(ctx context.Context) (*TurnResult, error) {
	player, tile, err := d.pendingDecision()
	if err != nil {
		return nil, err
	}

	t := d.begin(player)
	d.emit(t, Event{
		Type:     EventDecline,
		Position: tile.Position,
		Amount:   tile.Price,
		Message:  fmt.Sprintf("%s passed on %s", player.Name, tile.Name),
	})
	return d.endTurn(ctx, t)
}

// PlayAITurn lets a computer player act: it waits the auto-roll delay and
// rolls, or settles a purchase decision left open (for example by a
// restored snapshot).
func (d *Driver) PlayAITurn(ctx context.Context) (*TurnResult, error) {
	state := d.eng.GetState()
	player, ok := state.ActivePlayer()
	if !ok {
		return nil, fmt.Errorf("%w: turn %d", engine.ErrInvalidPlayer, state.Turn)
	}
	if !player.IsAI {
		return nil, fmt.Errorf("%w: %s", ErrNotAITurn, player.Name)
	}

	switch state.WaitingFor {
	case engine.AwaitingRoll:
		if err := d.pacer.Pause(ctx, DelayAutoRoll); err != nil {
			return nil, err
		}
		return d.Roll(ctx)
	case engine.AwaitingPropertyDecision:
		if _, _, err := d.pendingDecision(); err != nil {
			return nil, err
		}
		return d.decide(ctx, d.begin(player))
	}
	return nil, fmt.Errorf("%w: %s", ErrNotAwaitingRoll, state.WaitingFor)
}
