package metrics

import (
	"math"

	"github.com/san-kum/fsim/internal/record"
)

// Stability is the fraction of samples whose column stays within threshold
// in every component.
type Stability struct {
	column     string
	threshold  float64
	violations int
	samples    int
}

func NewStability(column string, threshold float64) *Stability {
	return &Stability{
		column:    column,
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return label("stability", s.column)
}

func (s *Stability) Observe(_ float64, sol record.Struct) {
	s.samples++
	for _, val := range leaves(sol, s.column) {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
