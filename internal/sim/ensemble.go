package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/fsim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble solves one base configuration under many parameter sets. Each
// member gets its own Simulator but shares the base dynamics, so stateful
// dynamics run one member at a time.
type Ensemble struct {
	base    Config
	opts    SolveOptions
	workers int
}

func NewEnsemble(base Config, opts SolveOptions) *Ensemble {
	return &Ensemble{base: base, opts: opts, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds how many members run at once. n <= 0 means GOMAXPROCS.
func (e *Ensemble) SetWorkers(n int) *Ensemble {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	e.workers = n
	return e
}

// Run solves every member and returns their tables in the order of params.
// The first failure cancels the members that have not started.
func (e *Ensemble) Run(ctx context.Context, params []dynamo.Params) ([]*Table, error) {
	tables := make([]*Table, len(params))

	limit := e.workers
	if dynamo.IsStateful(e.base.Dyn) {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range params {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := e.base
			cfg.Params = p
			cfg.Record = false
			s, err := New(cfg)
			if err != nil {
				return err
			}
			tables[i], err = s.Solve(e.opts)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
