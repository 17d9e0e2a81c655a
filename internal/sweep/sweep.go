// Package sweep evaluates rate coefficients over a grid of electron
// temperatures.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/rates"
)

const Units = "cm³/s"

var (
	ErrNoReactions = errors.New("sweep: no reactions")
	ErrEmptyGrid   = errors.New("sweep: empty temperature grid")
	ErrBadGrid     = errors.New("sweep: grid values must be positive")
)

// DefaultReactions are the extended-network channels most sensitive to T_e
// and T_g.
var DefaultReactions = []string{
	"N + H2(v) -> H + NH",
	"NH3 + M -> NH2 + H + M",
	"NH2 + H -> NH3",
	"N + NH2 -> NH + NH",
}

// Matrix holds one row per reaction and one column per grid value.
type Matrix struct {
	Reactions []string
	Grid      []float64
	Values    [][]float64
	Units     string
}

// Cell formats a single entry for display.
func (m *Matrix) Cell(i, j int) string {
	return fmt.Sprintf("%.2e %s", m.Values[i][j], m.Units)
}

// Row returns the values of the named reaction, or nil.
func (m *Matrix) Row(reaction string) []float64 {
	for i, r := range m.Reactions {
		if r == reaction {
			return m.Values[i]
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

// Run evaluates every reaction at every grid temperature, holding the rest
// of template fixed. Rows are evaluated concurrently.
func Run(ctx context.Context, rater rates.Rater, reactions []string, grid []float64, template plasma.State) (*Matrix, error) {
	if len(reactions) == 0 {
		return nil, ErrNoReactions
	}
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}
	for i, te := range grid {
		if !(te > 0) || math.IsInf(te, 0) {
			return nil, fmt.Errorf("%w: grid[%d] = %g", ErrBadGrid, i, te)
		}
	}

	m := &Matrix{
		Reactions: append([]string(nil), reactions...),
		Grid:      append([]float64(nil), grid...),
		Values:    make([][]float64, len(reactions)),
		Units:     Units,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, reaction := range m.Reactions {
		i, reaction := i, reaction
		g.Go(func() error {
			row := make([]float64, len(m.Grid))
			for j, te := range m.Grid {
				if err := ctx.Err(); err != nil {
					return err
				}
				row[j] = rater.Rate(reaction, template.WithTe(te))
			}
			m.Values[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
