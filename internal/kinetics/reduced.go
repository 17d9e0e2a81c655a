package kinetics

import (
	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/rates"
)

// Reduced network reactions, as named in the rate table.
const (
	ReactionNHFormation   = "N + H2 -> NH + H"
	ReactionNH2Formation  = "NH + H2 -> NH2 + H"
	ReactionNH3Formation  = "NH2 + H2 -> NH3 + H"
	ReactionNHNH2Exchange = "NH + NH2 -> NH3 + N"
	ReactionNH3Impact     = "e + NH3 -> NH2 + H"
)

// ReducedReactions lists the reduced network in rate order k1..k5.
var ReducedReactions = []string{
	ReactionNHFormation,
	ReactionNH2Formation,
	ReactionNH3Formation,
	ReactionNHNH2Exchange,
	ReactionNH3Impact,
}

var reducedSpecies = []Species{speciesN, speciesH2, speciesNH, speciesNH2, speciesNH3, speciesN2}

// Reduced is the six-species network [N, H2, NH, NH2, NH3, N2]. N2 is held
// inert and atomic hydrogen is not tracked, so atom totals drift.
type Reduced struct {
	K  [5]float64
	Ne float64
}

// NewReduced resolves k1..k5 for s. Missing reactions resolve to zero.
func NewReduced(r rates.Rater, s plasma.State) *Reduced {
	sys := &Reduced{Ne: s.Ne}
	for i, name := range ReducedReactions {
		sys.K[i] = r.Rate(name, s)
	}
	return sys
}

func (r *Reduced) Name() string       { return "reduced" }
func (r *Reduced) StateDim() int      { return len(reducedSpecies) }
func (r *Reduced) Species() []Species { return append([]Species(nil), reducedSpecies...) }

func (r *Reduced) Coefficients() []Coefficient {
	out := make([]Coefficient, len(ReducedReactions))
	for i, name := range ReducedReactions {
		out[i] = Coefficient{Reaction: name, Value: r.K[i]}
	}
	return out
}

func (r *Reduced) Derive(x dynamo.State, t float64) dynamo.State {
	n, h2, nh, nh2, nh3 := x[0], x[1], x[2], x[3], x[4]

	r1 := r.K[0] * n * h2
	r2 := r.K[1] * nh * h2
	r3 := r.K[2] * nh2 * h2
	r4 := r.K[3] * nh * nh2
	r5 := r.K[4] * r.Ne * nh3

	return dynamo.State{
		-r1 + r4,
		-r1 - r2 - r3,
		r1 - r2 - r4,
		r2 - r3 - r4 + r5,
		r3 + r4 - r5,
		0,
	}
}
