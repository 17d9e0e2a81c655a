package kinetics

import (
	"math"

	"github.com/san-kum/plasmasim/internal/dynamo"
	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/rates"
)

// Extended network reactions, as named in the rate table.
const (
	ReactionVibrationalNH = "N + H2(v) -> H + NH"
	ReactionNH3Thermal    = "NH3 + M -> NH2 + H + M"
	ReactionRecombination = "NH2 + H -> NH3"
	ReactionNNH2          = "N + NH2 -> NH + NH"
	ReactionNH            = "N + H -> NH"
	ReactionNHH           = "NH + H -> NH2"
	ReactionHAbstraction  = "H + NH2 -> H2 + NH"

	ReactionN2Dissociation = "e + N2 -> 2N + e"
	ReactionH2Dissociation = "e + H2 -> 2H + e"
)

// ExtendedReactions lists the table-driven part of the extended network in
// rate order k1..k7.
var ExtendedReactions = []string{
	ReactionVibrationalNH,
	ReactionNH3Thermal,
	ReactionRecombination,
	ReactionNNH2,
	ReactionNH,
	ReactionNHH,
	ReactionHAbstraction,
}

// extendedMultipliers are fixed stiffness controls applied to k1..k7.
var extendedMultipliers = [7]float64{1e3, 1e-2, 1e3, 1e3, 1e3, 1e3, 1e3}

var extendedSpecies = []Species{speciesN, speciesH, speciesH2, speciesNH, speciesNH2, speciesNH3, speciesN2}

// Dissociation returns the electron-impact dissociation coefficients of N2
// and H2 at electron temperature te (eV).
func Dissociation(te float64) (n2, h2 float64) {
	return 1e-9 * math.Exp(-9/te), 1e-9 * math.Exp(-8/te)
}

// Extended is the seven-species network [N, H, H2, NH, NH2, NH3, N2].
type Extended struct {
	K        [7]float64
	KN2, KH2 float64
	Ne       float64
	Catalyst float64
}

// NewExtended resolves k1..k7 for s with their fixed multipliers. catalyst
// scales the NH2 + H -> NH3 recombination only.
func NewExtended(r rates.Rater, s plasma.State, catalyst float64) *Extended {
	sys := &Extended{Ne: s.Ne, Catalyst: catalyst}
	for i, name := range ExtendedReactions {
		sys.K[i] = r.Rate(name, s) * extendedMultipliers[i]
	}
	sys.K[2] *= catalyst
	sys.KN2, sys.KH2 = Dissociation(s.Te)
	return sys
}

func (e *Extended) Name() string       { return "extended" }
func (e *Extended) StateDim() int      { return len(extendedSpecies) }
func (e *Extended) Species() []Species { return append([]Species(nil), extendedSpecies...) }

func (e *Extended) Coefficients() []Coefficient {
	out := make([]Coefficient, 0, len(ExtendedReactions)+2)
	for i, name := range ExtendedReactions {
		out = append(out, Coefficient{Reaction: name, Value: e.K[i]})
	}
	return append(out,
		Coefficient{Reaction: ReactionN2Dissociation, Value: e.KN2},
		Coefficient{Reaction: ReactionH2Dissociation, Value: e.KH2},
	)
}

func (e *Extended) Derive(x dynamo.State, t float64) dynamo.State {
	n, h, h2, nh, nh2, nh3, n2 := x[0], x[1], x[2], x[3], x[4], x[5], x[6]

	r1 := e.K[0] * n * h2
	r2 := e.K[1] * nh3
	r3 := e.K[2] * nh2 * h
	r4 := e.K[3] * n * nh2
	r5 := e.K[4] * n * h
	r6 := e.K[5] * nh * h
	r7 := e.K[6] * h * nh2
	rN2 := e.KN2 * e.Ne * n2
	rH2 := e.KH2 * e.Ne * h2

	return dynamo.State{
		-r1 - r4 - r5 + 2*rN2,
		r1 + r2 - r3 - r5 - r6 - r7 + 2*rH2,
		-r1 + r7 - rH2,
		r1 + r4 + r7 + r5 - r6,
		r2 + r6 - r3 - r4 - r7,
		r3 - r2,
		-rN2,
	}
}
