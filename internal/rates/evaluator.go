// Package rates resolves reaction names to rate coefficients for a given
// plasma state.
//
// Resolution tolerates bad table data: a reaction that
// is missing from the table, a numeric cell that cannot be cast, or an
// expression that fails to parse or evaluate all yield 0 and a warning on the
// caller's logger. The simulation keeps running with an incomplete network.
//
// Expressions are parsed once, when the Evaluator is built, by govaluate with
// a function table holding only exp. The token stream is then checked so that
// only numbers, T_e, T_g, E_v, exp, parentheses and + - * / ** survive.
// Chained powers and negated power bases must be parenthesized, since
// govaluate groups them differently from conventional notation.
package rates

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/san-kum/plasmasim/internal/plasma"
	"github.com/san-kum/plasmasim/internal/ratetable"
)

// Rater is anything that can produce a rate coefficient.
type Rater interface {
	Rate(reaction string, s plasma.State) float64
}

type Evaluator struct {
	table    *ratetable.Table
	compiled map[string]*compiled
	errs     map[string]error
	Log      logrus.FieldLogger
}

// NewEvaluator compiles every expression in the table. A nil logger falls
// back to the logrus standard logger.
func NewEvaluator(table *ratetable.Table, log logrus.FieldLogger) *Evaluator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Evaluator{
		table:    table,
		compiled: make(map[string]*compiled),
		errs:     make(map[string]error),
		Log:      log,
	}
	for _, entry := range table.Entries() {
		if entry.Kind != ratetable.Expression {
			continue
		}
		c, err := compile(entry.Raw)
		if err != nil {
			e.errs[entry.Name] = err
			continue
		}
		e.compiled[entry.Name] = c
	}
	return e
}

// Table returns the underlying rate table.
func (e *Evaluator) Table() *ratetable.Table { return e.table }

// Rate returns the rate coefficient of reaction at state s, or 0 with a
// warning when it cannot be resolved.
func (e *Evaluator) Rate(reaction string, s plasma.State) float64 {
	entry, ok := e.table.Lookup(reaction)
	if !ok {
		e.warn(reaction, "", "reaction not found", nil)
		return 0
	}

	if entry.Kind == ratetable.Numeric {
		v, err := cast.ToFloat64E(entry.Raw)
		if err != nil {
			e.warn(entry.Name, entry.Raw, "cannot cast rate to float", err)
			return 0
		}
		return v
	}

	if err, bad := e.errs[entry.Name]; bad {
		e.warn(entry.Name, entry.Raw, "cannot parse rate expression", err)
		return 0
	}

	v, err := e.compiled[entry.Name].eval(s.Te, s.Tg, s.Ev)
	if err != nil {
		e.warn(entry.Name, entry.Raw, "cannot evaluate rate expression", err)
		return 0
	}
	return v
}

// Problems lists the expressions that failed to compile, keyed by reaction.
func (e *Evaluator) Problems() map[string]error {
	out := make(map[string]error, len(e.errs))
	for k, v := range e.errs {
		out[k] = v
	}
	return out
}

func (e *Evaluator) warn(reaction, expression, reason string, err error) {
	entry := e.Log.WithFields(logrus.Fields{
		"reaction":   reaction,
		"expression": expression,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(reason)
}
