package reactor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Param sets one request field from a scan value.
type Param func(req *Request, v float64)

// Params are the request fields a GridSearch can vary.
var Params = map[string]Param{
	"te":       func(r *Request, v float64) { r.Te = v },
	"tg":       func(r *Request, v float64) { r.Tg = v },
	"ev":       func(r *Request, v float64) { r.Ev = v },
	"ratio":    func(r *Request, v float64) { r.FeedRatio = v },
	"power":    func(r *Request, v float64) { r.Density.PowerDensity = v },
	"catalyst": func(r *Request, v float64) { r.Catalyst = v },
}

var ErrNoRuns = errors.New("reactor: no scan point completed")

// ScanPoint is one evaluated parameter combination.
type ScanPoint struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch runs the reactor over the cartesian product of parameter
// ranges and reports the point that maximizes a result metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for _, p := range params {
		if _, ok := Params[p]; !ok {
			return nil, fmt.Errorf("unknown scan parameter: %s", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search returns the best point and every visited point in grid order,
// the last parameter varying fastest. Points run concurrently. Failed runs
// are recorded with their error and skipped.
func (g *GridSearch) Search(ctx context.Context, r *Reactor, base Request, metric string) (ScanPoint, []ScanPoint, error) {
	combos := g.combinations()
	reqs := make([]Request, len(combos))
	for i, combo := range combos {
		reqs[i] = base
		for name, v := range combo {
			Params[name](&reqs[i], v)
		}
	}

	responses, errs := NewEnsemble(r, 0).Run(ctx, reqs)
	if err := ctx.Err(); err != nil {
		return ScanPoint{}, nil, err
	}

	points := make([]ScanPoint, len(combos))
	best := ScanPoint{Value: math.Inf(-1)}
	for i, combo := range combos {
		points[i] = ScanPoint{Params: combo, Err: errs[i]}
		if errs[i] != nil {
			continue
		}
		v, ok := responses[i].Result.Metrics[metric]
		if !ok {
			return best, points, fmt.Errorf("unknown metric: %s", metric)
		}
		points[i].Value = v
		if v > best.Value {
			best = points[i]
		}
	}

	if best.Params == nil {
		return best, points, ErrNoRuns
	}
	return best, points, nil
}

// combinations enumerates the cartesian product of the ranges.
func (g *GridSearch) combinations() []map[string]float64 {
	combos := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(combos)*len(g.ranges[i]))
		for _, c := range combos {
			for _, v := range g.ranges[i] {
				m := copyParams(c)
				m[name] = v
				next = append(next, m)
			}
		}
		combos = next
	}
	return combos
}

func copyParams(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ParamNames lists the scannable request fields.
func ParamNames() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
