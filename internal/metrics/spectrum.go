package metrics

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/fsim/internal/record"
	"gonum.org/v1/gonum/stat"
)

// DominantFrequency is the frequency, in cycles per unit time, carrying the
// most power in a scalar column. Samples are assumed evenly spaced.
type DominantFrequency struct {
	column string
	t      []float64
	values []float64
}

func NewDominantFrequency(column string) *DominantFrequency {
	return &DominantFrequency{column: column}
}

func (d *DominantFrequency) Name() string { return label("dominant_freq", d.column) }

func (d *DominantFrequency) Observe(t float64, sol record.Struct) {
	vals := leaves(sol, d.column)
	if len(vals) != 1 {
		return
	}
	d.t = append(d.t, t)
	d.values = append(d.values, vals[0])
}

// Value is zero for fewer than four samples or a constant signal.
func (d *DominantFrequency) Value() float64 {
	n := len(d.values)
	if n < 4 {
		return 0
	}
	span := math.Abs(d.t[n-1] - d.t[0])
	if span == 0 {
		return 0
	}

	mean := stat.Mean(d.values, nil)
	centered := make([]float64, n)
	for i, v := range d.values {
		centered[i] = v - mean
	}
	spectrum := fft.FFTReal(centered)

	best, power := 0, 0.0
	for k := 1; k <= n/2; k++ {
		if p := cmplx.Abs(spectrum[k]); p > power {
			best, power = k, p
		}
	}
	if power < 1e-12 {
		return 0
	}
	dt := span / float64(n-1)
	return float64(best) / (float64(n) * dt)
}

func (d *DominantFrequency) Reset() {
	d.t = d.t[:0]
	d.values = d.values[:0]
}
