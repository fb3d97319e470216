package record

import (
	"encoding/json"
	"testing"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Empty(t *testing.T) {
	for name, in := range map[string]dynamo.Record{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			s := Normalize(in)
			assert.True(t, s.IsEmpty())
			assert.Equal(t, 0, s.Len())
			assert.Empty(t, s.Flatten())
			assert.Equal(t, "()", s.String())
		})
	}
}

func TestNormalize_Nested(t *testing.T) {
	s := Normalize(dynamo.Record{
		"x":      []float64{1, 2},
		"energy": 3.5,
		"input": dynamo.Record{
			"u":     0.25,
			"gains": map[string]float64{"kp": 1, "kd": 2},
		},
		"empty": map[string]any{},
		"label": "spring",
	})

	assert.Equal(t, []string{"empty", "energy", "input", "label", "x"}, s.Keys())

	x, ok := s.Vector("x")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, x)

	u, ok := s.Float("input", "u")
	require.True(t, ok)
	assert.Equal(t, 0.25, u)

	kd, ok := s.Float("input", "gains", "kd")
	require.True(t, ok)
	assert.Equal(t, 2.0, kd)

	empty, ok := s.Lookup("empty")
	require.True(t, ok)
	inner, ok := empty.Struct()
	require.True(t, ok)
	assert.True(t, inner.IsEmpty())

	label, ok := s.Get("label")
	require.True(t, ok)
	assert.Equal(t, KindScalar, label.Kind())
	assert.Equal(t, "spring", label.Scalar())

	_, ok = s.Float("input", "missing")
	assert.False(t, ok)
	_, ok = s.Float("x", "deeper")
	assert.False(t, ok)
}

func TestNormalize_CopiesVectors(t *testing.T) {
	x := dynamo.State{1, 2, 3}
	s := Normalize(dynamo.Record{"x": x})
	x[0] = 99

	got, _ := s.Vector("x")
	assert.Equal(t, []float64{1, 2, 3}, got)

	got[1] = -1
	again, _ := s.Vector("x")
	assert.Equal(t, 2.0, again[1], "Vector must hand out a copy")
}

func TestNormalize_IntsBecomeFloats(t *testing.T) {
	s := Normalize(dynamo.Record{"n": 3})
	n, ok := s.Float("n")
	require.True(t, ok)
	assert.Equal(t, 3.0, n)
}

func TestFlatten(t *testing.T) {
	s := Normalize(dynamo.Record{
		"x":   []float64{1, 2},
		"sub": dynamo.Record{"a": 3.0, "b": true},
		"tag": "ignored",
	})
	assert.Equal(t, []Column{
		{Name: "sub.a", Value: 3},
		{Name: "sub.b", Value: 1},
		{Name: "x[0]", Value: 1},
		{Name: "x[1]", Value: 2},
	}, s.Flatten())
}

func TestEqualApprox(t *testing.T) {
	a := Normalize(dynamo.Record{"x": []float64{1, 2}, "e": dynamo.Record{"k": 1.0}})
	b := Normalize(dynamo.Record{"x": []float64{1 + 1e-9, 2}, "e": dynamo.Record{"k": 1.0}})
	c := Normalize(dynamo.Record{"x": []float64{1.1, 2}, "e": dynamo.Record{"k": 1.0}})
	d := Normalize(dynamo.Record{"x": []float64{1, 2}})

	assert.True(t, a.EqualApprox(b, 1e-6))
	assert.False(t, a.EqualApprox(c, 1e-6))
	assert.False(t, a.EqualApprox(d, 1e-6))
	assert.True(t, Empty.EqualApprox(Normalize(nil), 0))
}

func TestMarshalJSON(t *testing.T) {
	s := Normalize(dynamo.Record{
		"x":   []float64{1, 2},
		"sub": dynamo.Record{"a": 3.0},
		"nil": nil,
	})
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nil":null,"sub":{"a":3},"x":[1,2]}`, string(b))

	b, err = json.Marshal(Empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestNormalize_OtherStringKeyedMaps(t *testing.T) {
	counts := map[string]int{"steps": 3, "rejected": 1}
	states := map[string]dynamo.State{"a": {1, 2}}
	subs := map[string]dynamo.Record{"gains": {"kp": 1.5}}

	s := Normalize(dynamo.Record{"counts": counts, "states": states, "subs": subs})

	steps, ok := s.Float("counts", "steps")
	require.True(t, ok)
	assert.Equal(t, 3.0, steps)

	a, ok := s.Vector("states", "a")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, a)

	kp, ok := s.Float("subs", "gains", "kp")
	require.True(t, ok)
	assert.Equal(t, 1.5, kp)

	assert.Equal(t, []Column{
		{Name: "counts.rejected", Value: 1},
		{Name: "counts.steps", Value: 3},
		{Name: "states.a[0]", Value: 1},
		{Name: "states.a[1]", Value: 2},
		{Name: "subs.gains.kp", Value: 1.5},
	}, s.Flatten())

	counts["steps"] = 99
	states["a"][0] = 99
	subs["gains"]["kp"] = 99

	steps, _ = s.Float("counts", "steps")
	assert.Equal(t, 3.0, steps)
	a, _ = s.Vector("states", "a")
	assert.Equal(t, []float64{1, 2}, a)
	kp, _ = s.Float("subs", "gains", "kp")
	assert.Equal(t, 1.5, kp)
}

func TestNormalize_OtherNumericSlices(t *testing.T) {
	ints := []int{1, 2, 3}
	singles := []float32{0.5, 1.5}
	s := Normalize(dynamo.Record{"i": ints, "f": singles, "n": int64(7)})

	v, ok := s.Vector("i")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, v)

	v, ok = s.Vector("f")
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 1.5}, v)

	n, ok := s.Float("n")
	require.True(t, ok)
	assert.Equal(t, 7.0, n)

	ints[0] = 99
	singles[0] = 99
	v, _ = s.Vector("i")
	assert.Equal(t, 1.0, v[0])
	v, _ = s.Vector("f")
	assert.Equal(t, 0.5, v[0])
}
