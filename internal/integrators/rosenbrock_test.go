package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/sim"
)

// stiffPair relaxes y1 towards y0 a million times faster than y0 decays.
type stiffPair struct{}

func (s *stiffPair) StateDim() int { return 2 }

func (s *stiffPair) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{
		-x[0],
		-1e6 * (x[1] - x[0]),
	}
}

type linearDecay struct{ k float64 }

func (l *linearDecay) StateDim() int { return 1 }
func (l *linearDecay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-l.k * x[0]}
}

func TestRosenbrock_LinearStepAccuracy(t *testing.T) {
	r := NewRosenbrock()
	next, errEst, err := r.Attempt(&linearDecay{k: 1}, dynamo.State{1}, 0, 1e-3)
	if err != nil {
		t.Fatalf("Attempt failed: %v", err)
	}
	want := math.Exp(-1e-3)
	if math.Abs(next[0]-want) > 1e-9 {
		t.Errorf("expected %.12f, got %.12f", want, next[0])
	}
	if math.Abs(errEst[0]) > 1e-8 {
		t.Errorf("error estimate too large for a tiny step: %e", errEst[0])
	}
}

func TestRosenbrock_StiffStability(t *testing.T) {
	r := NewRosenbrock()
	x := dynamo.State{1, 0}

	// dt is far beyond the explicit stability limit of 2e-6.
	for i := 0; i < 100; i++ {
		next, _, err := r.Attempt(&stiffPair{}, x, float64(i)*0.01, 0.01)
		if err != nil {
			t.Fatalf("Attempt failed: %v", err)
		}
		x = next
	}
	if !x.IsValid() {
		t.Fatal("Rosenbrock diverged on a stiff problem")
	}
	want := math.Exp(-1)
	if math.Abs(x[0]-want) > 1e-3 || math.Abs(x[1]-want) > 1e-3 {
		t.Errorf("expected both components near %.4f, got %v", want, x)
	}
}

func TestRosenbrock_WithSimulator(t *testing.T) {
	s := sim.New(&stiffPair{}, NewRosenbrock())

	cfg := dynamo.DefaultConfig()
	cfg.Duration = 1
	cfg.Samples = 11
	cfg.RelTol = 1e-5
	cfg.AbsTol = 1e-10

	result, err := s.Run(context.Background(), dynamo.State{1, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	final := result.Final()
	want := math.Exp(-1)
	if math.Abs(final[0]-want) > 1e-4 {
		t.Errorf("expected %.6f, got %.6f", want, final[0])
	}
	if result.StepsTaken > 5000 {
		t.Errorf("implicit method should not need %d steps", result.StepsTaken)
	}
}

func TestRK45_StiffNeedsManySteps(t *testing.T) {
	s := sim.New(&stiffPair{}, NewRK45())

	cfg := dynamo.DefaultConfig()
	cfg.Duration = 1
	cfg.Samples = 2
	cfg.MaxSteps = 5000

	_, err := s.Run(context.Background(), dynamo.State{1, 0}, cfg)
	if !errors.Is(err, dynamo.ErrMaxSteps) {
		t.Errorf("explicit method should exhaust the step budget on a stiff problem, got %v", err)
	}
}
