package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/fsim/internal/config"
	"github.com/san-kum/fsim/internal/control"
	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"decay", "geometric", "lorenz", "pendulum", "spring_mass"}, r.ListModels())

	_, err := r.GetModel("cartpole")
	assert.ErrorIs(t, err, dynamo.ErrConfig)

	m, err := r.GetModel("pendulum")
	require.NoError(t, err)
	u, err := r.GetController("", config.ControllerConfig{}, m)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.GetController("lqr", config.ControllerConfig{}, m)
	require.NoError(t, err)
	assert.IsType(t, &control.LQR{}, u)

	lorenz, _ := r.GetModel("lorenz")
	_, err = r.GetController("lqr", config.ControllerConfig{}, lorenz)
	assert.ErrorIs(t, err, dynamo.ErrConfig)
}

func TestBuild_Decay(t *testing.T) {
	exp, err := NewRegistry().Build(config.GetPreset("decay", "unit"))
	require.NoError(t, err)

	table, err := exp.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 101, table.Len())

	x, ok := table.At(-1).Sol.Vector("x")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{math.Exp(-1), 2 * math.Exp(-1)}, x, 1e-6)
}

func TestBuild_DiscreteFromModel(t *testing.T) {
	cfg := config.GetPreset("geometric", "slow")
	cfg.Kind = ""
	cfg.SaveStep = 0
	exp, err := NewRegistry().Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, exp.SaveStep())

	table, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, table.Len())
}

func TestBuild_Overrides(t *testing.T) {
	cfg := config.GetPreset("decay", "unit")
	cfg.Params = map[string]float64{"rate": 2}
	cfg.State = nil
	exp, err := NewRegistry().Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, &physics.DecayParams{Rate: 2}, exp.Simulator().Integrator().Params())
	assert.Equal(t, dynamo.State{1, 2}, exp.Simulator().Integrator().State())

	cfg.Params = map[string]float64{"mass": 2}
	_, err = NewRegistry().Build(cfg)
	assert.ErrorIs(t, err, dynamo.ErrConfig)
}

func TestBuild_Controlled(t *testing.T) {
	exp, err := NewRegistry().Build(config.GetPreset("pendulum", "balance"))
	require.NoError(t, err)
	assert.True(t, exp.Simulator().Loggable())

	table, err := exp.Run(context.Background())
	require.NoError(t, err)

	theta, ok := table.At(-1).Sol.Float("theta")
	require.True(t, ok)
	assert.Less(t, math.Abs(theta), 0.05)

	m := exp.Metrics(table)
	assert.Contains(t, m, "effort(u)")
	assert.Equal(t, 1.0, m["stability(theta)"])
}

func TestBuild_WithInputs(t *testing.T) {
	cfg := config.GetPreset("spring_mass", "bounce")
	cfg.State = []float64{0, 0}
	cfg.TF = 1
	exp, err := NewRegistry().Build(cfg, WithInputs(map[string]control.Input{"u": control.Constant(1.0)}))
	require.NoError(t, err)

	require.NoError(t, exp.Simulator().Step(0.5))
	u, ok := exp.Simulator().Sample().Float("u")
	require.True(t, ok)
	assert.Equal(t, 1.0, u)
	assert.Greater(t, exp.Simulator().Integrator().State()[0], 0.0)
}

func TestBuild_NotLoggable(t *testing.T) {
	cfg := config.GetPreset("lorenz", "butterfly")
	cfg.TF = 0.5
	exp, err := NewRegistry().Build(cfg)
	require.NoError(t, err)
	assert.False(t, exp.Simulator().Loggable())

	table, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 51, table.Len())
	assert.Empty(t, table.Columns())
	assert.Empty(t, exp.Metrics(table))
}

func TestRun_Cancelled(t *testing.T) {
	exp, err := NewRegistry().Build(config.GetPreset("decay", "unit"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweep(t *testing.T) {
	exp, err := NewRegistry().Build(config.GetPreset("decay", "unit"))
	require.NoError(t, err)

	tables, err := exp.Sweep(context.Background(), "rate", []float64{0.5, 1, 2}, 2)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	for i, rate := range []float64{0.5, 1, 2} {
		x, _ := tables[i].At(-1).Sol.Vector("x")
		assert.InDelta(t, math.Exp(-rate), x[0], 1e-6)
	}

	_, err = exp.Sweep(context.Background(), "bogus", []float64{1}, 0)
	assert.ErrorIs(t, err, dynamo.ErrConfig)
}
