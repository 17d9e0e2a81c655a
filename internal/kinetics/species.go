package kinetics

import (
	"github.com/san-kum/plasmasim/internal/dynamo"
)

// Species labels one component of the concentration vector.
type Species struct {
	Name string
	N, H int // atoms per molecule
}

// Coefficient is a resolved rate constant after any fixed multiplier.
type Coefficient struct {
	Reaction string
	Value    float64
}

// System is a kinetics variant ready for integration.
type System interface {
	dynamo.System
	Name() string
	Species() []Species
	Coefficients() []Coefficient
}

var (
	speciesN   = Species{Name: "N", N: 1}
	speciesH   = Species{Name: "H", H: 1}
	speciesH2  = Species{Name: "H2", H: 2}
	speciesNH  = Species{Name: "NH", N: 1, H: 1}
	speciesNH2 = Species{Name: "NH2", N: 1, H: 2}
	speciesNH3 = Species{Name: "NH3", N: 1, H: 3}
	speciesN2  = Species{Name: "N2", N: 2}
)

// Names returns the species labels in vector order.
func Names(species []Species) []string {
	out := make([]string, len(species))
	for i, s := range species {
		out[i] = s.Name
	}
	return out
}

// Index returns the position of the named species, or -1.
func Index(species []Species, name string) int {
	for i, s := range species {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Atoms returns the total N and H atom densities of x.
func Atoms(species []Species, x dynamo.State) (n, h float64) {
	for i, s := range species {
		if i >= len(x) {
			break
		}
		n += float64(s.N) * x[i]
		h += float64(s.H) * x[i]
	}
	return n, h
}
