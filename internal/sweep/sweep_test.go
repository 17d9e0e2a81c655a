package sweep

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/rates"
	"github.com/san-kum/plasmasim/internal/ratetable"
)

type teRater struct{ calls atomic.Int64 }

func (r *teRater) Rate(reaction string, s plasma.State) float64 {
	r.calls.Add(1)
	if s.Tg != 300 {
		return -1
	}
	return float64(len(reaction)) * s.Te
}

func TestRun(t *testing.T) {
	r := &teRater{}
	grid := Linspace(1, 5, 5)
	m, err := Run(context.Background(), r, []string{"a", "bb", "ccc"}, grid, plasma.State{Te: 99, Tg: 300})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(m.Values) != 3 || len(m.Values[0]) != 5 {
		t.Fatalf("expected 3x5 matrix, got %dx%d", len(m.Values), len(m.Values[0]))
	}
	for i, reaction := range m.Reactions {
		for j, te := range m.Grid {
			want := float64(len(reaction)) * te
			if m.Values[i][j] != want {
				t.Errorf("[%d][%d] = %g, want %g", i, j, m.Values[i][j], want)
			}
		}
	}
	if got := r.calls.Load(); got != 15 {
		t.Errorf("expected 15 evaluations, got %d", got)
	}
	if m.Units != Units {
		t.Errorf("units: %q", m.Units)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name      string
		reactions []string
		grid      []float64
		want      error
	}{
		{"no reactions", nil, []float64{1}, ErrNoReactions},
		{"empty grid", []string{"a"}, nil, ErrEmptyGrid},
		{"zero", []string{"a"}, []float64{1, 0}, ErrBadGrid},
		{"negative", []string{"a"}, []float64{-2}, ErrBadGrid},
		{"nan", []string{"a"}, []float64{math.NaN()}, ErrBadGrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), &teRater{}, tt.reactions, tt.grid, plasma.State{Tg: 300})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, &teRater{}, []string{"a"}, []float64{1, 2}, plasma.State{Tg: 300})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_DefaultTable(t *testing.T) {
	tbl, err := ratetable.Default()
	if err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	ev := rates.NewEvaluator(tbl, logger)

	m, err := Run(context.Background(), ev, DefaultReactions, Linspace(1, 10, 10), plasma.State{Tg: 300})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	// none of the default channels depend on T_e
	for i := range m.Reactions {
		for j := 1; j < len(m.Grid); j++ {
			if m.Values[i][j] != m.Values[i][0] {
				t.Errorf("%s varies with T_e", m.Reactions[i])
			}
		}
	}
	if len(hook.AllEntries()) != 0 {
		t.Errorf("unexpected warnings: %d", len(hook.AllEntries()))
	}

	e, err := Run(context.Background(), ev, []string{"e + NH3 -> NH2 + H"}, []float64{1, 2, 4}, plasma.State{Tg: 300})
	if err != nil {
		t.Fatal(err)
	}
	row := e.Row("e + NH3 -> NH2 + H")
	if !(row[0] < row[1] && row[1] < row[2]) {
		t.Errorf("electron impact rate should grow with T_e: %v", row)
	}
}

func TestCell(t *testing.T) {
	m := &Matrix{Values: [][]float64{{6e-11}}, Units: Units}
	if got := m.Cell(0, 0); got != "6.00e-11 cm³/s" {
		t.Errorf("Cell = %q", got)
	}
	if m.Row("missing") != nil {
		t.Error("unknown row should be nil")
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(1, 10, 10)
	if len(got) != 10 || got[0] != 1 || got[9] != 10 {
		t.Errorf("Linspace = %v", got)
	}
	if Linspace(0, 1, 0) != nil {
		t.Error("n=0 should be nil")
	}
	if s := Linspace(3, 9, 1); len(s) != 1 || s[0] != 3 {
		t.Errorf("n=1: %v", s)
	}
	if !strings.Contains(DefaultReactions[2], "NH2 + H -> NH3") {
		t.Error("default reactions should use the canonical recombination name")
	}
}
