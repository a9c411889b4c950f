package driver

import (
	"context"
	"time"
)

// Delay names a pause point in the turn pipeline
type Delay string

const (
	DelayStep     Delay = "step"      // between single-tile moves
	DelayArrival  Delay = "arrival"   // after the last step, before resolution
	DelayDecision Delay = "decision"  // before an AI purchase decision
	DelayRent     Delay = "rent"      // after a rent or tax payment
	DelayAutoRoll Delay = "auto_roll" // before an AI rolls
	DelayTurnEnd  Delay = "turn_end"  // before the turn passes
)

// Pacer spaces out the steps of a turn for presentation. Pause returns the
// context error when the context ends first.
type Pacer interface {
	Pause(ctx context.Context, d Delay) error
}

// Delays holds the duration for every pause point
type Delays struct {
	Step     time.Duration `json:"step" yaml:"step"`
	Arrival  time.Duration `json:"arrival" yaml:"arrival"`
	Decision time.Duration `json:"decision" yaml:"decision"`
	Rent     time.Duration `json:"rent" yaml:"rent"`
	AutoRoll time.Duration `json:"auto_roll" yaml:"auto-roll"`
	TurnEnd  time.Duration `json:"turn_end" yaml:"turn-end"`
}

// DefaultDelays matches the pacing of the browser board
func DefaultDelays() Delays {
	return Delays{
		Step:     300 * time.Millisecond,
		Arrival:  400 * time.Millisecond,
		Decision: 1000 * time.Millisecond,
		Rent:     1500 * time.Millisecond,
		AutoRoll: 1500 * time.Millisecond,
		TurnEnd:  1000 * time.Millisecond,
	}
}

func (d Delays) duration(delay Delay) time.Duration {
	switch delay {
	case DelayStep:
		return d.Step
	case DelayArrival:
		return d.Arrival
	case DelayDecision:
		return d.Decision
	case DelayRent:
		return d.Rent
	case DelayAutoRoll:
		return d.AutoRoll
	case DelayTurnEnd:
		return d.TurnEnd
	}
	return 0
}

// TimerPacer sleeps for the configured duration of each pause
type TimerPacer struct {
	Delays Delays
}

// NewTimerPacer returns a pacer using the given delays
func NewTimerPacer(delays Delays) *TimerPacer {
	return &TimerPacer{Delays: delays}
}

// Pause waits for the delay or until ctx is done
func (p *TimerPacer) Pause(ctx context.Context, d Delay) error {
	dur := p.Delays.duration(d)
	if dur <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoPacer never waits. It still reports a cancelled context.
type NoPacer struct{}

// Pause returns immediately
func (NoPacer) Pause(ctx context.Context, _ Delay) error {
	return ctx.Err()
}
