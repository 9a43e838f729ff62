package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/san-kum/precession/internal/config"
	"github.com/san-kum/precession/internal/experiment"
)

// GridSearch evaluates every combination of parameter values and keeps the
// one whose metric lands closest to a target.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameters with %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("grid search: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Evaluation is one grid point and the metric it produced.
type Evaluation struct {
	Params map[string]float64
	Value  float64
	Error  string
}

// Search runs every grid point on a copy of base and returns the best
// parameters, their distance |metric - target| and all evaluations in grid
// order. Failed runs are kept in the evaluations but never chosen.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	metricName string,
	target float64,
	steps int,
	logger log.Logger,
) (map[string]float64, float64, []Evaluation, error) {
	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	specs := make([]experiment.Spec, len(points))
	for i, params := range points {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return nil, 0, nil, err
			}
		}
		specs[i] = experiment.Spec{Name: label(params), Config: cfg, Steps: steps}
	}

	runs, runErr := experiment.RunAll(ctx, specs, logger)

	best := math.Inf(1)
	var bestParams map[string]float64
	evals := make([]Evaluation, len(points))

	for i, run := range runs {
		if run == nil {
			return nil, 0, nil, fmt.Errorf("grid point %s: %w", specs[i].Name, runErr)
		}
		val, ok := run.Meta.Metrics[metricName]
		if !ok {
			return nil, 0, nil, fmt.Errorf("grid search: unknown metric %q", metricName)
		}
		evals[i] = Evaluation{Params: points[i], Value: val, Error: run.Meta.Error}
		if run.Meta.Error != "" {
			continue
		}
		if d := math.Abs(val - target); d < best {
			best = d
			bestParams = points[i]
		}
	}

	if bestParams == nil {
		return nil, 0, evals, errors.New("grid search: every run failed")
	}
	return bestParams, best, evals, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.enumerate(depth+1, newParams, out)
	}
}

func label(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, ",")
}
