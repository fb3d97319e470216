// Package optim searches model parameters for the best value of a metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/experiment"
	"github.com/sirupsen/logrus"
)

// BuildFunc builds an experiment with the given parameter overrides.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

// GridSearch tries every combination of the parameter ranges and keeps the
// one minimizing a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        logrus.FieldLogger
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters with %d ranges", dynamo.ErrConfig, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: empty range for %s", dynamo.ErrConfig, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, log: logrus.StandardLogger()}, nil
}

func (g *GridSearch) SetLogger(log logrus.FieldLogger) { g.log = log }

// Result is the best point found and every point tried.
type Result struct {
	Params map[string]float64
	Value  float64
	Tried  int
}

// Search minimizes metric over the grid. Combinations whose metric is
// missing or NaN are skipped; a build or solve error stops the search.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metric string) (*Result, error) {
	res := &Result{Value: math.Inf(1)}
	if err := g.search(ctx, 0, map[string]float64{}, build, metric, res); err != nil {
		return nil, err
	}
	if res.Params == nil {
		return nil, fmt.Errorf("no combination produced %s", metric)
	}
	return res, nil
}

func (g *GridSearch) search(ctx context.Context, depth int, current map[string]float64, build BuildFunc, metric string, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return g.try(ctx, current, build, metric, res)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.search(ctx, depth+1, next, build, metric, res); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) try(ctx context.Context, params map[string]float64, build BuildFunc, metric string, res *Result) error {
	exp, err := build(params)
	if err != nil {
		return err
	}
	table, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	res.Tried++

	val, ok := exp.Metrics(table)[metric]
	if !ok || math.IsNaN(val) {
		g.log.WithField("params", params).Debugf("no %s for combination", metric)
		return nil
	}
	if val < res.Value {
		res.Value = val
		res.Params = params
	}
	return nil
}
