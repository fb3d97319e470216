// Package metrics summarizes a result table column by column.
package metrics

import (
	"fmt"
	"strings"

	"github.com/san-kum/fsim/internal/record"
	"github.com/san-kum/fsim/internal/sim"
)

// Metric folds the rows of a table into one number.
type Metric interface {
	Name() string
	Observe(t float64, sol record.Struct)
	Value() float64
	Reset()
}

type Result struct {
	Name  string
	Value float64
}

// Evaluate resets every metric, feeds it the table and collects the values.
func Evaluate(table *sim.Table, ms ...Metric) []Result {
	for _, m := range ms {
		m.Reset()
	}
	for _, r := range table.Rows() {
		for _, m := range ms {
			m.Observe(r.Time, r.Sol)
		}
	}
	out := make([]Result, len(ms))
	for i, m := range ms {
		out[i] = Result{Name: m.Name(), Value: m.Value()}
	}
	return out
}

// leaves returns the flattened values under column: the column itself, or
// every leaf of the struct or vector it names.
func leaves(sol record.Struct, column string) []float64 {
	var out []float64
	for _, c := range sol.Flatten() {
		if c.Name == column || strings.HasPrefix(c.Name, column+".") || strings.HasPrefix(c.Name, column+"[") {
			out = append(out, c.Value)
		}
	}
	return out
}

func label(kind, column string) string {
	return fmt.Sprintf("%s(%s)", kind, column)
}
