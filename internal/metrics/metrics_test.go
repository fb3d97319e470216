package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/record"
	"github.com/san-kum/fsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(rows ...dynamo.Record) *sim.Table {
	tb := sim.NewTable()
	for i, r := range rows {
		tb.Append(float64(i), record.Normalize(r))
	}
	return tb
}

func TestEnergyDrift(t *testing.T) {
	tb := table(
		dynamo.Record{"energy": dynamo.Record{"total": 2.0}},
		dynamo.Record{"energy": dynamo.Record{"total": 2.2}},
		dynamo.Record{"energy": dynamo.Record{"total": 1.9}},
	)
	res := Evaluate(tb, NewEnergyDrift("energy.total"))
	require.Len(t, res, 1)
	assert.Equal(t, "energy_drift(energy.total)", res[0].Name)
	assert.InDelta(t, 0.1, res[0].Value, 1e-12)
}

func TestEnergyDrift_Reset(t *testing.T) {
	m := NewEnergyDrift("e")
	m.Observe(0, record.Normalize(dynamo.Record{"e": 1.0}))
	m.Observe(1, record.Normalize(dynamo.Record{"e": 2.0}))
	assert.Equal(t, 1.0, m.Value())

	m.Reset()
	assert.Equal(t, 0.0, m.Value())
}

func TestStability(t *testing.T) {
	tb := table(
		dynamo.Record{"x": dynamo.State{0.1, 0.2}},
		dynamo.Record{"x": dynamo.State{0.1, 5}},
		dynamo.Record{"x": dynamo.State{0, 0}},
		dynamo.Record{"x": dynamo.State{-3, 0}},
	)
	res := Evaluate(tb, NewStability("x", 1))
	assert.Equal(t, 0.5, res[0].Value)
	assert.Equal(t, 1.0, NewStability("x", 1).Value())
}

func TestEffortAndStats(t *testing.T) {
	tb := table(
		dynamo.Record{"u": -1.0, "y": 1.0},
		dynamo.Record{"u": 3.0, "y": 2.0},
		dynamo.Record{"u": 2.0, "y": 6.0},
	)
	res := Evaluate(tb, NewEffort("u"), Min("y"), Max("y"), Mean("y"), Final("y"), StdDev("y"))
	want := []float64{2, 1, 6, 3, 6, math.Sqrt(7)}
	for i, r := range res {
		assert.InDelta(t, want[i], r.Value, 1e-12, r.Name)
	}
	assert.True(t, math.IsNaN(Evaluate(table(dynamo.Record{}), Mean("y"))[0].Value))
}

func TestSummary(t *testing.T) {
	tb := table(dynamo.Record{"a": 1.0, "b": 2.0})
	res := Evaluate(tb, Summary(tb.Columns())...)
	require.Len(t, res, 8)
	assert.Equal(t, "min(a)", res[0].Name)
	assert.Equal(t, "final(b)", res[7].Name)
}

func TestDominantFrequency(t *testing.T) {
	// 2 Hz sine sampled at 64 Hz for 2 s
	m := NewDominantFrequency("x")
	for i := 0; i < 128; i++ {
		tt := float64(i) / 64
		m.Observe(tt, record.Normalize(dynamo.Record{"x": 1 + math.Sin(2*math.Pi*2*tt)}))
	}
	assert.Equal(t, "dominant_freq(x)", m.Name())
	assert.InDelta(t, 2.0, m.Value(), 0.05)

	m.Reset()
	assert.Zero(t, m.Value())
}

func TestDominantFrequency_Constant(t *testing.T) {
	tb := table(
		dynamo.Record{"x": 3.0},
		dynamo.Record{"x": 3.0},
		dynamo.Record{"x": 3.0},
		dynamo.Record{"x": 3.0},
		dynamo.Record{"x": 3.0},
	)
	res := Evaluate(tb, NewDominantFrequency("x"))
	assert.Zero(t, res[0].Value)
}
