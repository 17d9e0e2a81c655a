package integrators

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/plasmasim/internal/dynamo"
)

// Shampine-Reichelt ROS2(3) constants (MATLAB ode23s).
var (
	rosD   = 1.0 / (2.0 + math.Sqrt2)
	rosE32 = 6.0 + math.Sqrt2
)

// ErrSingularMatrix is returned when the iteration matrix I - h*d*J cannot be
// factorized.
var ErrSingularMatrix = errors.New("integrators: singular iteration matrix")

// Rosenbrock is a linearly implicit, L-stable second order method with an
// embedded third order error estimate. The Jacobian is approximated by
// forward differences once per attempt.
type Rosenbrock struct {
	// Formula selects the finite difference scheme, fd.Forward by default.
	Formula fd.Formula
	// JacobianStep is the absolute perturbation in state units.
	JacobianStep float64
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{
		Formula:      fd.Forward,
		JacobianStep: 1e-8,
	}
}

func (r *Rosenbrock) Name() string    { return "rosenbrock" }
func (r *Rosenbrock) ErrorOrder() int { return 2 }

func (r *Rosenbrock) Attempt(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, dynamo.State, error) {
	n := len(x)

	f0 := sys.Derive(x, t)

	jac := mat.NewDense(n, n, nil)
	fd.Jacobian(jac, func(y, z []float64) {
		copy(y, sys.Derive(z, t))
	}, x, &fd.JacobianSettings{
		Formula:     r.Formula,
		OriginValue: f0,
		Step:        r.JacobianStep,
	})

	w := mat.NewDense(n, n, nil)
	w.Scale(-dt*rosD, jac)
	for i := 0; i < n; i++ {
		w.Set(i, i, w.At(i, i)+1)
	}

	var lu mat.LU
	lu.Factorize(w)
	if lu.Det() == 0 {
		return nil, nil, ErrSingularMatrix
	}

	k1, err := solve(&lu, f0)
	if err != nil {
		return nil, nil, err
	}

	mid := make(dynamo.State, n)
	for i := range x {
		mid[i] = x[i] + 0.5*dt*k1[i]
	}
	f1 := sys.Derive(mid, t+0.5*dt)

	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = f1[i] - k1[i]
	}
	k2, err := solve(&lu, rhs)
	if err != nil {
		return nil, nil, err
	}
	for i := range k2 {
		k2[i] += k1[i]
	}

	next := make(dynamo.State, n)
	for i := range x {
		next[i] = x[i] + dt*k2[i]
	}

	f2 := sys.Derive(next, t+dt)
	for i := range rhs {
		rhs[i] = f2[i] - rosE32*(k2[i]-f1[i]) - 2*(k1[i]-f0[i])
	}
	k3, err := solve(&lu, rhs)
	if err != nil {
		return nil, nil, err
	}

	errEst := make(dynamo.State, n)
	for i := range errEst {
		errEst[i] = dt / 6 * (k1[i] - 2*k2[i] + k3[i])
	}

	return next, errEst, nil
}

func solve(lu *mat.LU, b []float64) ([]float64, error) {
	dst := mat.NewVecDense(len(b), nil)
	if err := lu.SolveVecTo(dst, false, mat.NewVecDense(len(b), b)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("integrators: linear solve: %w", err)
		}
	}
	out := make([]float64, len(b))
	copy(out, dst.RawVector().Data)
	return out, nil
}
