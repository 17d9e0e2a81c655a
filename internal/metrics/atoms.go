package metrics

import (
	"math"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/kinetics"
)

// Element selects which atom balance AtomDrift tracks.
type Element int

const (
	Nitrogen Element = iota
	Hydrogen
)

func (e Element) String() string {
	if e == Nitrogen {
		return "n"
	}
	return "h"
}

// AtomDrift reports the largest relative departure of the total atom
// density of one element from its value at the first sample.
type AtomDrift struct {
	name     string
	element  Element
	species  []kinetics.Species
	initial  float64
	maxDrift float64
	samples  int
}

func NewAtomDrift(species []kinetics.Species, element Element) *AtomDrift {
	return &AtomDrift{
		name:    element.String() + "_atom_drift",
		element: element,
		species: species,
	}
}

func (a *AtomDrift) Name() string { return a.name }

func (a *AtomDrift) Observe(x dynamo.State, t float64) {
	n, h := kinetics.Atoms(a.species, x)
	total := n
	if a.element == Hydrogen {
		total = h
	}

	if a.samples == 0 {
		a.initial = total
	}
	a.samples++

	if a.initial != 0 {
		drift := math.Abs(total-a.initial) / math.Abs(a.initial)
		a.maxDrift = math.Max(a.maxDrift, drift)
	}
}

func (a *AtomDrift) Value() float64 { return a.maxDrift }

func (a *AtomDrift) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}
