package integrators

import (
	"sort"

	"github.com/san-kum/fsim/internal/dynamo"
	"gonum.org/v1/gonum/floats/scalar"
)

// Solution is the raw trajectory at every stop of a solve.
type Solution struct {
	T []float64
	U []dynamo.State
}

func sameTime(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, timeTol, timeTol)
}

// travelOrder returns the times inside [from, tf] sorted in the direction of
// integration, with near-duplicates removed.
func travelOrder(times []float64, from, tf, dir float64) []float64 {
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if dir*(t-from) < 0 && !sameTime(t, from) {
			continue
		}
		if dir*(t-tf) > 0 && !sameTime(t, tf) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return dir*out[a] < dir*out[b] })
	uniq := out[:0]
	for _, t := range out {
		if len(uniq) > 0 && sameTime(uniq[len(uniq)-1], t) {
			continue
		}
		uniq = append(uniq, t)
	}
	return uniq
}

// Solve integrates from the current time to the end of the problem's span,
// stopping at every callback time. Callbacks sharing a time fire in set
// order; callbacks without Times are checked at every stop.
func Solve(integ dynamo.Integrator, cbs dynamo.CallbackSet) (*Solution, error) {
	dir := integ.Dir()
	_, tf := integ.Problem().TSpan()
	start := integ.Time()

	var all []float64
	scheduled := make([][]float64, len(cbs))
	cursor := make([]int, len(cbs))
	for k, cb := range cbs {
		scheduled[k] = travelOrder(cb.Times, start, tf, dir)
		all = append(all, scheduled[k]...)
	}
	stops := travelOrder(append(all, tf), start, tf, dir)

	sol := &Solution{}
	for _, ts := range stops {
		if !sameTime(ts, integ.Time()) {
			if err := integ.Step(ts-integ.Time(), true); err != nil {
				return sol, err
			}
		}

		for k, cb := range cbs {
			due := cb.Times == nil
			if !due {
				times := scheduled[k]
				for cursor[k] < len(times) && dir*(times[cursor[k]]-ts) < 0 && !sameTime(times[cursor[k]], ts) {
					cursor[k]++
				}
				if cursor[k] < len(times) && sameTime(times[cursor[k]], ts) {
					cursor[k]++
					due = true
				}
			}
			if !due || cb.Affect == nil {
				continue
			}
			if cb.Condition != nil && !cb.Condition(integ) {
				continue
			}
			if err := cb.Affect(integ); err != nil {
				return sol, err
			}
		}

		sol.T = append(sol.T, integ.Time())
		sol.U = append(sol.U, integ.State().Clone())
	}
	return sol, nil
}

// SavingCallback records save(x, t, integ) at each of times into buf.
func SavingCallback(save func(x dynamo.State, t float64, integ dynamo.Integrator) dynamo.Record, buf *dynamo.SavedValues, times []float64) dynamo.Callback {
	return dynamo.Callback{
		Name:  "saving",
		Times: times,
		Affect: func(integ dynamo.Integrator) error {
			buf.Append(integ.Time(), save(integ.State(), integ.Time(), integ))
			return nil
		},
	}
}
