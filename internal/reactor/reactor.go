// Package reactor turns a simulation request into a kinetics run: it
// validates the request, derives the electron density and initial
// concentrations, resolves rate coefficients and drives the integrator.
//
// Fatal problems are written to the reactor's logger before they are
// returned, so a single FieldLogger collects both the evaluator's degraded
// lookups and the run's failures.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/kinetics"
	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/rates"
	"github.com/san-kum/plasmasim/internal/ratetable"
	"github.com/san-kum/plasmasim/internal/sim"
)

const (
	DefaultTe           = 2.0
	DefaultTg           = 300.0
	DefaultFeedRatio    = 0.33
	DefaultTotalDensity = 1e16
	DefaultSeedDensity  = 1e10
	DefaultPowerDensity = 1.0
	DefaultCatalyst     = 1.0
)

// DensitySpec selects and parameterizes the electron-density model. Zero
// parameters keep the model's defaults.
type DensitySpec struct {
	Model        string
	PowerDensity float64
	Base         float64
	Floor        float64
	Ionization   float64
	Neutral      float64
}

type Request struct {
	Variant string
	Method  string

	Te float64 // eV
	Tg float64 // K
	Ev float64 // K

	// FeedRatio r splits TotalDensity into N2 = 1/(1+3r) and H2 = 3r/(1+3r).
	FeedRatio    float64
	TotalDensity float64
	// SeedDensity is the initial density of the N and H radicals.
	SeedDensity float64

	Density  DensitySpec
	Catalyst float64

	Duration float64
	Samples  int
	Times    []float64
	RelTol   float64
	AbsTol   float64
	MaxSteps int

	// Initial overrides the derived initial concentrations.
	Initial []float64
}

func DefaultRequest() Request {
	simCfg := dynamo.DefaultConfig()
	return Request{
		Variant:      "reduced",
		Method:       "rosenbrock",
		Te:           DefaultTe,
		Tg:           DefaultTg,
		FeedRatio:    DefaultFeedRatio,
		TotalDensity: DefaultTotalDensity,
		SeedDensity:  DefaultSeedDensity,
		Density: DensitySpec{
			Model:        "power",
			PowerDensity: DefaultPowerDensity,
		},
		Catalyst: DefaultCatalyst,
		Duration: simCfg.Duration,
		Samples:  simCfg.Samples,
		RelTol:   simCfg.RelTol,
		AbsTol:   simCfg.AbsTol,
		MaxSteps: simCfg.MaxSteps,
	}
}

// Config is the integrator configuration of the request.
func (r Request) Config() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Duration = r.Duration
	cfg.Samples = r.Samples
	if len(r.Times) > 0 {
		cfg.Times = append([]float64(nil), r.Times...)
	}
	if r.RelTol > 0 {
		cfg.RelTol = r.RelTol
	}
	if r.AbsTol > 0 {
		cfg.AbsTol = r.AbsTol
	}
	if r.MaxSteps > 0 {
		cfg.MaxSteps = r.MaxSteps
	}
	return cfg
}

type Response struct {
	Variant      string
	Method       string
	Species      []kinetics.Species
	Plasma       plasma.State
	Coefficients []kinetics.Coefficient
	Result       *dynamo.Result
}

// Names returns the species labels in column order.
func (r *Response) Names() []string { return kinetics.Names(r.Species) }

// Series returns the trajectory of one species, or nil if it is not part of
// the variant.
func (r *Response) Series(species string) []float64 {
	idx := kinetics.Index(r.Species, species)
	if idx < 0 || r.Result == nil {
		return nil
	}
	return r.Result.Series(idx)
}

type Reactor struct {
	registry *Registry
	rater    rates.Rater
	Log      logrus.FieldLogger
}

// New builds a reactor over table. Rate lookups are memoized across runs.
func New(table *ratetable.Table, log logrus.FieldLogger) (*Reactor, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if table == nil || table.Len() == 0 {
		log.WithError(ratetable.ErrEmptyTable).Error("reactor: no rate data")
		return nil, ratetable.ErrEmptyTable
	}
	ev := rates.NewEvaluator(table, log)
	for name, err := range ev.Problems() {
		log.WithFields(logrus.Fields{"reaction": name}).WithError(err).Debug("rate expression rejected")
	}
	return NewWithRater(rates.NewCached(ev, rates.DefaultCacheSize), log), nil
}

// NewWithRater builds a reactor over an arbitrary rate source.
func NewWithRater(rater rates.Rater, log logrus.FieldLogger) *Reactor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reactor{registry: NewRegistry(), rater: rater, Log: log}
}

// Rater is the memoized rate source shared by every run of r.
func (r *Reactor) Rater() rates.Rater { return r.rater }

// Run executes one simulation. Any returned error has already been logged.
func (r *Reactor) Run(ctx context.Context, req Request) (*Response, error) {
	log := r.Log.WithFields(logrus.Fields{"variant": req.Variant, "method": req.Method})

	if err := Validate(req); err != nil {
		return nil, r.fatal(log, "invalid request", err)
	}

	variant, err := r.registry.GetVariant(req.Variant)
	if err != nil {
		return nil, r.fatal(log, "invalid request", err)
	}
	stepper, err := r.registry.GetStepper(req.Method)
	if err != nil {
		return nil, r.fatal(log, "invalid request", err)
	}
	density, err := r.registry.GetDensityModel(req.Density)
	if err != nil {
		return nil, r.fatal(log, "invalid request", err)
	}

	state := plasma.State{Te: req.Te, Tg: req.Tg, Ev: req.Ev, Ne: density.Density(req.Te)}
	if !(state.Ne >= 0) || math.IsInf(state.Ne, 0) {
		return nil, r.fatal(log, "invalid electron density",
			fmt.Errorf("%w: %s model gives n_e = %g", dynamo.ErrParameterBounds, density.Name(), state.Ne))
	}

	sys := variant(r.rater, state, req.Catalyst)
	x0, err := InitialState(sys.Species(), req)
	if err != nil {
		return nil, r.fatal(log, "invalid initial state", err)
	}

	simulator := sim.New(sys, stepper)
	total := 0.0
	for _, v := range x0 {
		total += v
	}
	for _, m := range r.registry.DefaultMetrics(sys, total) {
		simulator.AddMetric(m)
	}

	log.WithFields(logrus.Fields{
		"plasma":  state.String(),
		"density": density.Name(),
	}).Debug("starting run")

	result, err := simulator.Run(ctx, x0, req.Config())
	if err != nil {
		return nil, r.fatal(log, "simulation failed", err)
	}

	log.WithFields(logrus.Fields{
		"steps":    result.StepsTaken,
		"rejected": result.Rejected,
		"samples":  len(result.Times),
	}).Debug("run complete")

	return &Response{
		Variant:      sys.Name(),
		Method:       stepper.Name(),
		Species:      sys.Species(),
		Plasma:       state,
		Coefficients: sys.Coefficients(),
		Result:       result,
	}, nil
}

func (r *Reactor) fatal(log logrus.FieldLogger, msg string, err error) error {
	entry := log.WithError(err)
	var simErr *dynamo.SimulationError
	if errors.As(err, &simErr) {
		entry = entry.WithFields(logrus.Fields{"step": simErr.Step, "time": simErr.Time, "dt": simErr.Dt})
	}
	entry.Error(msg)
	return err
}

// Validate checks the request for values no run can proceed with.
func Validate(req Request) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrParameterBounds}, args...)...)
	}

	switch {
	case !(req.Te > 0):
		return bad("electron temperature must be positive, got %g", req.Te)
	case !(req.Tg > 0):
		return bad("gas temperature must be positive, got %g", req.Tg)
	case req.Ev < 0:
		return bad("vibrational energy must be non-negative, got %g", req.Ev)
	case req.FeedRatio < 0:
		return bad("feed ratio must be non-negative, got %g", req.FeedRatio)
	case req.TotalDensity < 0:
		return bad("total density must be non-negative, got %g", req.TotalDensity)
	case req.SeedDensity < 0:
		return bad("seed density must be non-negative, got %g", req.SeedDensity)
	case req.Catalyst < 0:
		return bad("catalyst factor must be non-negative, got %g", req.Catalyst)
	case req.Density.PowerDensity < 0:
		return bad("power density must be non-negative, got %g", req.Density.PowerDensity)
	}

	if len(req.Times) == 0 {
		if !(req.Duration > 0) {
			return bad("duration must be positive, got %g", req.Duration)
		}
		if req.Samples < 2 {
			return bad("need at least 2 samples, got %d", req.Samples)
		}
	}
	return nil
}

// InitialState builds the starting concentrations for species from the
// feed composition, or checks and copies req.Initial when it is set.
func InitialState(species []kinetics.Species, req Request) (dynamo.State, error) {
	if req.Initial != nil {
		if len(req.Initial) != len(species) {
			return nil, fmt.Errorf("%w: initial state has %d components, %d species expected",
				dynamo.ErrDimensionMismatch, len(req.Initial), len(species))
		}
		x0 := dynamo.State(append([]float64(nil), req.Initial...))
		for i, v := range x0 {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %s initial density %g", dynamo.ErrInvalidState, species[i].Name, v)
			}
		}
		return x0, nil
	}

	r := req.FeedRatio
	x0 := make(dynamo.State, len(species))
	for i, s := range species {
		switch s.Name {
		case "N2":
			x0[i] = req.TotalDensity / (1 + 3*r)
		case "H2":
			x0[i] = req.TotalDensity * 3 * r / (1 + 3*r)
		case "N", "H":
			x0[i] = req.SeedDensity
		}
	}
	return x0, nil
}
