package metrics

import (
	"math"

	"github.com/san-kum/fsim/internal/record"
)

// EnergyDrift is the largest relative departure of an energy column from its
// first sample.
type EnergyDrift struct {
	column        string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(column string) *EnergyDrift {
	return &EnergyDrift{column: column}
}

func (e *EnergyDrift) Name() string { return label("energy_drift", e.column) }

func (e *EnergyDrift) Observe(_ float64, sol record.Struct) {
	vals := leaves(sol, e.column)
	if len(vals) != 1 {
		return
	}
	energy := vals[0]

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
