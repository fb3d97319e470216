package control

import (
	"fmt"
	"sync"

	"github.com/san-kum/fsim/internal/dynamo"
)

// Manual is an input set from outside the simulation, e.g. a key press in
// the TUI. It may be set from another goroutine than the one stepping.
type Manual struct {
	mu sync.RWMutex
	u  dynamo.State
}

func NewManual(dim int) *Manual {
	return &Manual{u: make(dynamo.State, dim)}
}

// Set replaces the input vector. A vector of the wrong length leaves the
// input unchanged and is ErrDimensionMismatch.
func (m *Manual) Set(u ...float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(u) != len(m.u) {
		return fmt.Errorf("%w: manual input has %d components, got %d", dynamo.ErrDimensionMismatch, len(m.u), len(u))
	}
	copy(m.u, u)
	return nil
}

func (m *Manual) Get() dynamo.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.u.Clone()
}

func (m *Manual) Eval(dynamo.State, dynamo.Params, float64) any {
	return m.Get()
}

// Reset zeroes the input.
func (m *Manual) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.u {
		m.u[i] = 0
	}
}
