package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/plasmasim/internal/dynamo"
)

// Simulator advances a system over a set of sample times with adaptive step
// control. It never steps past a sample time, so samples need no
// interpolation.
type Simulator struct {
	sys     dynamo.System
	stepper dynamo.Stepper
	metrics []dynamo.Metric

	safety   float64
	minScale float64
	maxScale float64
}

func New(sys dynamo.System, stepper dynamo.Stepper) *Simulator {
	return &Simulator{
		sys:      sys,
		stepper:  stepper,
		metrics:  make([]dynamo.Metric, 0),
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

// Run integrates from x0 at t=0 and returns one state per sample time.
// Step-size collapse, an exhausted step budget or a non-finite initial
// state are returned as *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d",
			dynamo.ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	if !x0.IsValid() {
		return nil, &dynamo.SimulationError{State: x0.Clone(), Wrapped: dynamo.ErrInvalidState}
	}

	times := cfg.SampleTimes()
	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, len(times)),
		Times:   make([]float64, 0, len(times)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	scale := x0.MaxAbs()
	if scale == 0 {
		scale = 1
	}
	sys := &scaledSystem{inner: s.sys, scale: scale}

	record := func(z dynamo.State, t float64) {
		x := z.Scale(scale)
		result.States = append(result.States, x)
		result.Times = append(result.Times, t)
		for _, m := range s.metrics {
			m.Observe(x, t)
		}
	}

	z := x0.Scale(1 / scale)
	t := 0.0
	next := 0
	if times[0] == 0 {
		record(z, 0)
		next = 1
	}

	dt := s.initialStep(sys, z, times[len(times)-1], cfg)
	exponent := -1.0 / float64(s.stepper.ErrorOrder()+1)
	attempts := 0

	for next < len(times) {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if attempts >= cfg.MaxSteps {
			return result, &dynamo.SimulationError{
				Step: attempts, Time: t, Dt: dt, State: z.Scale(scale), Wrapped: dynamo.ErrMaxSteps,
			}
		}
		attempts++

		target := times[next]
		h := dt
		if cfg.MaxDt > 0 {
			h = math.Min(h, cfg.MaxDt)
		}
		clipped := false
		if h >= target-t {
			h = target - t
			clipped = true
		}

		candidate, errEst, stepErr := s.stepper.Attempt(sys, z, t, h)

		ratio := math.Inf(1)
		if stepErr == nil && candidate.IsValid() && errEst.IsValid() {
			ratio = errorNorm(z, candidate, errEst, cfg.RelTol, cfg.AbsTol)
		}

		var factor float64
		switch {
		case ratio == 0:
			factor = s.maxScale
		case math.IsInf(ratio, 1):
			factor = s.minScale
		default:
			factor = math.Min(s.maxScale, math.Max(s.minScale, s.safety*math.Pow(ratio, exponent)))
		}

		if ratio <= 1 {
			result.StepsTaken++
			z = candidate
			if clipped {
				t = target
				record(z, t)
				next++
				dt = math.Max(dt, h*factor)
			} else {
				t += h
				dt = h * factor
			}
			continue
		}

		result.Rejected++
		dt = h * factor
		minDt := math.Max(cfg.MinDt, 16*epsilon*math.Abs(t))
		if dt < minDt {
			wrapped := dynamo.ErrStepTooSmall
			if stepErr != nil {
				wrapped = fmt.Errorf("%w: %v", dynamo.ErrStepTooSmall, stepErr)
			}
			return result, &dynamo.SimulationError{
				Step: attempts, Time: t, Dt: dt, State: z.Scale(scale), Wrapped: wrapped,
			}
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

const epsilon = 2.220446049250313e-16

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if len(cfg.Times) > 0 {
		for i, t := range cfg.Times {
			if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
				return fmt.Errorf("%w: sample time %d is %g", dynamo.ErrParameterBounds, i, t)
			}
			if i > 0 && t <= cfg.Times[i-1] {
				return fmt.Errorf("%w: sample times must be strictly increasing (index %d)", dynamo.ErrParameterBounds, i)
			}
		}
	} else {
		if cfg.Duration <= 0 {
			return fmt.Errorf("duration must be positive, got %g", cfg.Duration)
		}
		if cfg.Samples < 2 {
			return fmt.Errorf("need at least 2 samples, got %d", cfg.Samples)
		}
	}
	if cfg.RelTol <= 0 || cfg.AbsTol <= 0 {
		return fmt.Errorf("tolerances must be positive, got rel=%g abs=%g", cfg.RelTol, cfg.AbsTol)
	}
	if cfg.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
	}
	return nil
}

func (s *Simulator) initialStep(sys dynamo.System, z dynamo.State, span float64, cfg dynamo.Config) float64 {
	if cfg.InitDt > 0 {
		return cfg.InitDt
	}
	f0 := sys.Derive(z, 0)
	d := 0.0
	for i := range z {
		d = math.Max(d, math.Abs(f0[i])/(cfg.AbsTol+cfg.RelTol*math.Abs(z[i])))
	}
	if d == 0 || math.IsNaN(d) {
		return span
	}
	h := 0.8 * math.Pow(cfg.RelTol, 1/float64(s.stepper.ErrorOrder()+1)) / d
	return math.Min(h, span)
}

// errorNorm is the max-norm of the local error weighted by mixed tolerances.
func errorNorm(x, next, errEst dynamo.State, rtol, atol float64) float64 {
	worst := 0.0
	for i := range x {
		w := atol + rtol*math.Max(math.Abs(x[i]), math.Abs(next[i]))
		worst = math.Max(worst, math.Abs(errEst[i])/w)
	}
	return worst
}

// scaledSystem works in units of the largest initial component so that
// tolerances and finite-difference steps are meaningful for concentrations
// around 1e16.
type scaledSystem struct {
	inner dynamo.System
	scale float64
}

func (s *scaledSystem) StateDim() int { return s.inner.StateDim() }

func (s *scaledSystem) Derive(z dynamo.State, t float64) dynamo.State {
	dx := s.inner.Derive(z.Scale(s.scale), t)
	return dx.Scale(1 / s.scale)
}
