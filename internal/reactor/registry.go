package reactor

import (
	"fmt"
	"sort"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/integrators"
	"github.com/san-kum/plasmasim/internal/kinetics"
	"github.com/san-kum/plasmasim/internal/metrics"
	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/rates"
)

type VariantFunc func(r rates.Rater, s plasma.State, catalyst float64) kinetics.System

// Registry maps request names to kinetics variants, steppers and
// electron-density models.
type Registry struct {
	variants  map[string]VariantFunc
	steppers  map[string]func() dynamo.Stepper
	densities map[string]func(DensitySpec) plasma.DensityModel
}

func NewRegistry() *Registry {
	r := &Registry{
		variants:  make(map[string]VariantFunc),
		steppers:  make(map[string]func() dynamo.Stepper),
		densities: make(map[string]func(DensitySpec) plasma.DensityModel),
	}

	r.variants["reduced"] = func(rt rates.Rater, s plasma.State, _ float64) kinetics.System {
		return kinetics.NewReduced(rt, s)
	}
	r.variants["extended"] = func(rt rates.Rater, s plasma.State, catalyst float64) kinetics.System {
		return kinetics.NewExtended(rt, s, catalyst)
	}

	r.steppers["rosenbrock"] = func() dynamo.Stepper { return integrators.NewRosenbrock() }
	r.steppers["rk45"] = func() dynamo.Stepper { return integrators.NewRK45() }

	r.densities["power"] = func(d DensitySpec) plasma.DensityModel {
		m := plasma.NewPowerScaling(d.PowerDensity)
		if d.Base > 0 {
			m.Base = d.Base
		}
		if d.Floor > 0 {
			m.Floor = d.Floor
		}
		return m
	}
	r.densities["saha"] = func(d DensitySpec) plasma.DensityModel {
		m := plasma.NewSaha()
		if d.Ionization > 0 {
			m.Ionization = d.Ionization
		}
		if d.Neutral > 0 {
			m.Neutral = d.Neutral
		}
		return m
	}

	return r
}

func (r *Registry) GetVariant(name string) (VariantFunc, error) {
	fn, ok := r.variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant: %s", name)
	}
	return fn, nil
}

func (r *Registry) GetStepper(name string) (dynamo.Stepper, error) {
	fn, ok := r.steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetDensityModel(spec DensitySpec) (plasma.DensityModel, error) {
	fn, ok := r.densities[spec.Model]
	if !ok {
		return nil, fmt.Errorf("unknown density model: %s", spec.Model)
	}
	return fn(spec), nil
}

func (r *Registry) ListVariants() []string      { return sortedKeys(r.variants) }
func (r *Registry) ListMethods() []string       { return sortedKeys(r.steppers) }
func (r *Registry) ListDensityModels() []string { return sortedKeys(r.densities) }

// DefaultMetrics tracks atom balance, positivity and the ammonia yield.
func (r *Registry) DefaultMetrics(sys kinetics.System, total float64) []dynamo.Metric {
	species := sys.Species()
	return []dynamo.Metric{
		metrics.NewAtomDrift(species, metrics.Nitrogen),
		metrics.NewAtomDrift(species, metrics.Hydrogen),
		metrics.NewPositivity(1e-6 * total),
		metrics.NewYield("NH3", kinetics.Index(species, "NH3")),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
