// Package kinetics defines the species balance equations of the N2/H2
// plasma mechanism as dynamo.System implementations.
//
// Two variants exist with different species sets: Reduced (six species,
// N2 inert) and Extended (seven species, atomic hydrogen, electron-impact
// dissociation of N2 and H2, catalyst enhancement of NH2 + H -> NH3). Both
// resolve their rate coefficients once at construction for a fixed plasma
// state, after which Derive is a pure mass-action evaluation.
package kinetics
