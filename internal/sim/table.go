package sim

import (
	"encoding/json"
	"math"

	"github.com/san-kum/fsim/internal/record"
	"gonum.org/v1/gonum/floats/scalar"
)

// Row is one sampled instant of a Table.
type Row struct {
	Time float64       `json:"time"`
	Sol  record.Struct `json:"sol"`
}

// Table is the time-indexed result of a simulation, in insertion order.
type Table struct {
	rows []Row
}

func NewTable() *Table {
	return &Table{}
}

func (tb *Table) Append(t float64, sol record.Struct) {
	tb.rows = append(tb.rows, Row{Time: t, Sol: sol})
}

func (tb *Table) Len() int { return len(tb.rows) }

// At returns row i. Negative indices count from the end.
func (tb *Table) At(i int) Row {
	if i < 0 {
		i += len(tb.rows)
	}
	return tb.rows[i]
}

func (tb *Table) Last() (Row, bool) {
	if len(tb.rows) == 0 {
		return Row{}, false
	}
	return tb.rows[len(tb.rows)-1], true
}

// Rows returns a copy of the rows.
func (tb *Table) Rows() []Row {
	return append([]Row(nil), tb.rows...)
}

func (tb *Table) Times() []float64 {
	ts := make([]float64, len(tb.rows))
	for i, r := range tb.rows {
		ts[i] = r.Time
	}
	return ts
}

func (tb *Table) Reset() {
	tb.rows = tb.rows[:0]
}

// Columns lists the flattened numeric leaves of the first row.
func (tb *Table) Columns() []string {
	if len(tb.rows) == 0 {
		return nil
	}
	cols := tb.rows[0].Sol.Flatten()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Series extracts one flattened column. Rows missing the column read as NaN.
func (tb *Table) Series(name string) []float64 {
	out := make([]float64, len(tb.rows))
	for i, r := range tb.rows {
		out[i] = math.NaN()
		for _, c := range r.Sol.Flatten() {
			if c.Name == name {
				out[i] = c.Value
				break
			}
		}
	}
	return out
}

// EqualApprox compares two tables row by row, times and records within tol.
func (tb *Table) EqualApprox(o *Table, tol float64) bool {
	if tb.Len() != o.Len() {
		return false
	}
	for i, r := range tb.rows {
		q := o.rows[i]
		if !scalar.EqualWithinAbsOrRel(r.Time, q.Time, tol, tol) || !r.Sol.EqualApprox(q.Sol, tol) {
			return false
		}
	}
	return true
}

func (tb *Table) MarshalJSON() ([]byte, error) {
	if tb.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(tb.rows)
}
