package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the largest component magnitude.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// System is an autonomous or time-dependent ODE right-hand side. Derive must
// not retain or mutate x and must return a fresh slice.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Stepper attempts a single step of size dt and returns the candidate state
// together with a local error estimate of the same length.
type Stepper interface {
	Name() string
	// ErrorOrder is the order q of the error estimate, errors scale as dt^(q+1).
	ErrorOrder() int
	Attempt(sys System, x State, t, dt float64) (next, errEst State, err error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Config struct {
	// Duration is the end of the span [0, Duration] used with Samples.
	Duration float64
	// Samples is the number of uniform output points including both ends.
	Samples int
	// Times overrides Duration/Samples with explicit output times.
	Times []float64

	// RelTol and AbsTol are applied in units scaled by max|x0|.
	RelTol   float64
	AbsTol   float64
	InitDt   float64
	MinDt    float64
	MaxDt    float64
	MaxSteps int
}

func DefaultConfig() Config {
	return Config{
		Duration: 1e-3,
		Samples:  100,
		RelTol:   1e-6,
		AbsTol:   1e-12,
		MinDt:    1e-18,
		MaxSteps: 200000,
	}
}

// SampleTimes returns the output grid described by the config.
func (c Config) SampleTimes() []float64 {
	if len(c.Times) > 0 {
		out := make([]float64, len(c.Times))
		copy(out, c.Times)
		return out
	}
	n := c.Samples
	if n < 2 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = c.Duration * float64(i) / float64(n-1)
	}
	out[n-1] = c.Duration
	return out
}

type Result struct {
	States     []State
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Rejected   int
}

// Final returns the last sampled state, or nil for an empty result.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Series extracts component idx across all samples.
func (r *Result) Series(idx int) []float64 {
	out := make([]float64, len(r.States))
	for i, s := range r.States {
		if idx < len(s) {
			out[i] = s[idx]
		}
	}
	return out
}
