// Package dynamo provides core simulation primitives for autonomous
// ordinary differential equation systems.
//
// The package defines the fundamental interfaces and types shared by the
// kinetics models, the steppers and the simulation driver:
//
//   - [State]: concentration (or any) state vector
//   - [System]: right-hand side dX/dt = f(X, t)
//   - [Stepper]: one embedded step with an error estimate
//   - [Metric]: observer folded over accepted samples
//   - [Result]: sampled trajectory returned to the caller
//
// # Example
//
//	sys := kinetics.NewReduced(rater, plasmaState)
//	s := sim.New(sys, integrators.NewRosenbrock())
//	result, err := s.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Systems built by the kinetics package are immutable and may be shared.
// A Simulator owns its metrics and is NOT safe for concurrent Run calls.
package dynamo
