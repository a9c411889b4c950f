package driver

import (
	"math/rand/v2"
	"sync"
)

// Roller produces one roll of two six-sided dice
type Roller interface {
	Roll() (int, int)
}

// RandomRoller draws from a seeded PCG source. It is safe for concurrent use.
type RandomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller returns a roller seeded with seed. Equal seeds give equal
// roll sequences.
func NewRandomRoller(seed uint64) *RandomRoller {
	return &RandomRoller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll returns two independent uniform values in [1,6]
func (r *RandomRoller) Roll() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(6) + 1, r.rng.IntN(6) + 1
}

// SequenceRoller replays a fixed list of rolls and then wraps around
type SequenceRoller struct {
	mu    sync.Mutex
	rolls [][2]int
	next  int
}

// NewSequenceRoller returns a roller that yields rolls in order
func NewSequenceRoller(rolls ...[2]int) *SequenceRoller {
	return &SequenceRoller{rolls: rolls}
}

// Roll returns the next scripted roll, or (1,1) when none were given
func (s *SequenceRoller) Roll() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rolls) == 0 {
		return 1, 1
	}
	r := s.rolls[s.next%len(s.rolls)]
	s.next++
	return r[0], r[1]
}
