// Package plasma holds the run-time plasma parameters and the electron
// density models that close the kinetics equations.
//
// Two density models are provided as interchangeable strategies:
//
//   - [Saha]: equilibrium ionization from the Saha relation
//   - [PowerScaling]: empirical scaling with deposited power, floored
//
// Both are pure functions of their inputs. T_e must be positive; callers
// validate it before asking for a density.
package plasma
