package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultLyapunovDt           = 0.01
	DefaultLyapunovPerturbation = 1e-8
)

type LyapunovOptions struct {
	// Dt is the renormalization interval.
	Dt float64
	// Perturbation is the initial offset added to the first state component.
	Perturbation float64
}

func (o LyapunovOptions) withDefaults() LyapunovOptions {
	if o.Dt <= 0 {
		o.Dt = DefaultLyapunovDt
	}
	if o.Perturbation <= 0 {
		o.Perturbation = DefaultLyapunovPerturbation
	}
	return o
}

// Lyapunov estimates the largest Lyapunov exponent over the time span of
// cfg by trajectory separation: after every interval the perturbed state is
// pulled back to the initial distance along the separation and the log of
// the growth is accumulated.
//
// The dynamics is shared by both trajectories and must not keep state
// between calls.
func Lyapunov(cfg sim.Config, opts LyapunovOptions) (float64, error) {
	opts = opts.withDefaults()
	if dynamo.IsStateful(cfg.Dyn) {
		return 0, fmt.Errorf("%w: lyapunov needs stateless dynamics", dynamo.ErrConfig)
	}
	if len(cfg.State0) == 0 {
		return 0, fmt.Errorf("%w: empty initial state", dynamo.ErrConfig)
	}

	cfg.Record = false
	ref, err := sim.New(cfg)
	if err != nil {
		return 0, err
	}

	perturbed := cfg
	perturbed.State0 = cfg.State0.Clone()
	perturbed.State0[0] += opts.Perturbation
	pert, err := sim.New(perturbed)
	if err != nil {
		return 0, err
	}
	mut, ok := pert.Integrator().(dynamo.Mutator)
	if !ok {
		return 0, fmt.Errorf("%w: integrator cannot be renormalized", dynamo.ErrConfig)
	}

	d0 := opts.Perturbation
	dir := ref.Integrator().Dir()
	t0 := ref.Time()
	sumLog := 0.0
	offset := make(dynamo.State, len(cfg.State0))

	for k := 1; ; k++ {
		target := t0 + dir*float64(k)*opts.Dt
		ok, err := ref.StepUntil(target, sim.NoWarn())
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if _, err := pert.StepUntil(target, sim.NoWarn()); err != nil {
			return 0, err
		}

		x, xp := ref.Integrator().State(), pert.Integrator().State()
		sep := floats.Distance(x, xp, 2)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return 0, fmt.Errorf("%w: separation %v at t=%g", dynamo.ErrInvalidState, sep, ref.Time())
		}
		sumLog += math.Log(sep / d0)

		floats.SubTo(offset, xp, x)
		floats.Scale(d0/sep, offset)
		floats.Add(offset, x)
		if err := mut.SetState(offset); err != nil {
			return 0, err
		}
	}

	elapsed := math.Abs(ref.Time() - t0)
	if elapsed == 0 {
		return 0, nil
	}
	return sumLog / elapsed, nil
}
