package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/integrators"
	"github.com/san-kum/fsim/internal/record"
)

const (
	DefaultContinuousSaveStep = 0.01
	DefaultDiscreteSaveStep   = 1.0
)

// SolveOptions select when Solve samples. SaveAt and SaveStep are mutually
// exclusive; with neither set the default step for the problem kind is used.
// A non-nil empty SaveAt samples only the two ends of the span.
type SolveOptions struct {
	SaveAt   []float64
	SaveStep float64
	// Callbacks fire before the saving callback at shared times.
	Callbacks dynamo.CallbackSet
}

// DefaultSaveStep is the sampling step Solve uses for kind.
func DefaultSaveStep(kind dynamo.Kind) float64 {
	if kind == dynamo.Discrete {
		return DefaultDiscreteSaveStep
	}
	return DefaultContinuousSaveStep
}

// Range lists t0, t0+step, ... up to and including tf when it falls on the
// grid.
func Range(t0, tf, step float64) []float64 {
	dir := 1.0
	if tf < t0 {
		dir = -1
	}
	n := int(math.Floor(math.Abs(tf-t0)/step + 1e-9))
	out := make([]float64, n+1)
	for i := range out {
		out[i] = t0 + dir*float64(i)*step
	}
	if sameTime(out[n], tf) {
		out[n] = tf
	}
	return out
}

func (s *Simulator) schedule(opts SolveOptions) ([]float64, error) {
	prob := s.integ.Problem()
	t0, tf := prob.TSpan()

	switch {
	case opts.SaveAt != nil && opts.SaveStep != 0:
		return nil, fmt.Errorf("%w: saveat and savestep are mutually exclusive", dynamo.ErrConfig)
	case opts.SaveAt != nil:
		if len(opts.SaveAt) == 0 {
			return []float64{t0, tf}, nil
		}
		return append([]float64(nil), opts.SaveAt...), nil
	}

	step := opts.SaveStep
	if step == 0 {
		step = DefaultSaveStep(prob.Kind())
	}
	if step < 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: savestep must be positive, got %v", dynamo.ErrConfig, step)
	}
	return Range(t0, tf, step), nil
}

// Solve runs the whole time span from scratch and returns the sampled table.
// Any interactive progress is discarded first.
func (s *Simulator) Solve(opts SolveOptions) (*Table, error) {
	s.Reinit()

	times, err := s.schedule(opts)
	if err != nil {
		return nil, err
	}

	buf := &dynamo.SavedValues{}
	cbs := make(dynamo.CallbackSet, 0, len(opts.Callbacks)+1)
	cbs = append(cbs, opts.Callbacks...)
	cbs = append(cbs, integrators.SavingCallback(s.save, buf, times))

	if _, err := integrators.Solve(s.integ, cbs); err != nil {
		return nil, err
	}

	table := &Table{rows: make([]Row, 0, buf.Len())}
	for i, t := range buf.T {
		table.Append(t, record.Normalize(buf.Saved[i]))
	}
	return table, nil
}
