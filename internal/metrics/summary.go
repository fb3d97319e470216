package metrics

import (
	"math"

	"github.com/san-kum/fsim/internal/record"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Effort is the mean absolute value of an input column, summed over its
// components.
type Effort struct {
	column string
	vals   []float64
}

func NewEffort(column string) *Effort { return &Effort{column: column} }

func (c *Effort) Name() string { return label("effort", c.column) }

func (c *Effort) Observe(_ float64, sol record.Struct) {
	sum := 0.0
	for _, v := range leaves(sol, c.column) {
		sum += math.Abs(v)
	}
	c.vals = append(c.vals, sum)
}

func (c *Effort) Value() float64 {
	if len(c.vals) == 0 {
		return 0
	}
	return stat.Mean(c.vals, nil)
}

func (c *Effort) Reset() { c.vals = c.vals[:0] }

// Stat reduces one scalar column with a gonum statistic.
type Stat struct {
	kind   string
	column string
	reduce func([]float64) float64
	vals   []float64
}

func (s *Stat) Name() string { return label(s.kind, s.column) }

func (s *Stat) Observe(_ float64, sol record.Struct) {
	if vals := leaves(sol, s.column); len(vals) == 1 {
		s.vals = append(s.vals, vals[0])
	}
}

func (s *Stat) Value() float64 {
	if len(s.vals) == 0 {
		return math.NaN()
	}
	return s.reduce(s.vals)
}

func (s *Stat) Reset() { s.vals = s.vals[:0] }

func Mean(column string) *Stat {
	return &Stat{kind: "mean", column: column, reduce: func(v []float64) float64 { return stat.Mean(v, nil) }}
}

func StdDev(column string) *Stat {
	return &Stat{kind: "std", column: column, reduce: func(v []float64) float64 { return stat.StdDev(v, nil) }}
}

func Min(column string) *Stat {
	return &Stat{kind: "min", column: column, reduce: floats.Min}
}

func Max(column string) *Stat {
	return &Stat{kind: "max", column: column, reduce: floats.Max}
}

// Final is the last sample of a column.
func Final(column string) *Stat {
	return &Stat{kind: "final", column: column, reduce: func(v []float64) float64 { return v[len(v)-1] }}
}

// Summary is min, max, mean and final value for every column of the table's
// first row.
func Summary(columns []string) []Metric {
	ms := make([]Metric, 0, 4*len(columns))
	for _, c := range columns {
		ms = append(ms, Min(c), Max(c), Mean(c), Final(c))
	}
	return ms
}
