package rates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// Variables an expression may reference.
var allowedVars = map[string]bool{"T_e": true, "T_g": true, "E_v": true}

var allowedModifiers = map[string]bool{"+": true, "-": true, "*": true, "/": true, "**": true}

var (
	assignment = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_]*\s*=([^=].*)$`)
	scientific = regexp.MustCompile(`(\d+\.?\d*|\.\d+)[eE][+-]?\d+`)
)

// functions is the only callable surface exposed to table data.
var functions = map[string]govaluate.ExpressionFunction{
	"exp": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("exp: got %d arguments, needs 1", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("exp: argument is %T, not a number", args[0])
		}
		return math.Exp(x), nil
	},
}

// compiled is a parsed rate expression restricted to arithmetic.
type compiled struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// rewrite strips an optional "k =" prefix, maps ^ to the power operator and
// expands exponent-form literals, which the govaluate lexer does not read.
func rewrite(raw string) string {
	s := strings.TrimSpace(raw)
	if m := assignment.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	s = strings.ReplaceAll(s, "^", "**")
	return expandScientific(s)
}

func expandScientific(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range scientific.FindAllStringIndex(s, -1) {
		if loc[0] > 0 && isIdentChar(s[loc[0]-1]) {
			continue
		}
		v, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
		if err != nil {
			continue
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '.' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func compile(raw string) (*compiled, error) {
	src := rewrite(raw)
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(src, functions)
	if err != nil {
		return nil, err
	}

	for _, tok := range expr.Tokens() {
		switch tok.Kind {
		case govaluate.NUMERIC, govaluate.FUNCTION, govaluate.CLAUSE, govaluate.CLAUSE_CLOSE, govaluate.SEPARATOR:
		case govaluate.VARIABLE:
			name, _ := tok.Value.(string)
			if !allowedVars[name] {
				return nil, fmt.Errorf("unknown identifier %q", name)
			}
		case govaluate.MODIFIER:
			op, _ := tok.Value.(string)
			if !allowedModifiers[op] {
				return nil, fmt.Errorf("operator %q not allowed", op)
			}
		case govaluate.PREFIX:
			op, _ := tok.Value.(string)
			if op != "-" {
				return nil, fmt.Errorf("prefix %q not allowed", op)
			}
		default:
			return nil, fmt.Errorf("token %v (%v) not allowed", tok.Kind, tok.Value)
		}
	}

	if err := checkPowers(expr.Tokens()); err != nil {
		return nil, err
	}

	return &compiled{source: src, expr: expr}, nil
}

// checkPowers rejects power forms whose grouping govaluate does not share
// with conventional notation: a**b**c groups to the left and -a**b negates
// before raising. Both must be parenthesized in table data.
func checkPowers(toks []govaluate.ExpressionToken) error {
	isPow := func(i int) bool {
		return i < len(toks) && toks[i].Kind == govaluate.MODIFIER && toks[i].Value == "**"
	}
	for i, tok := range toks {
		switch {
		case isPow(i):
			if end := operandEnd(toks, i+1); end >= 0 && isPow(end+1) {
				return fmt.Errorf("chained power is ambiguous, parenthesize the exponent")
			}
		case tok.Kind == govaluate.PREFIX:
			if end := operandEnd(toks, i+1); end >= 0 && isPow(end+1) {
				return fmt.Errorf("negated power base is ambiguous, parenthesize the power")
			}
		}
	}
	return nil
}

// operandEnd returns the index of the last token of the operand starting at
// i, or -1 if there is none.
func operandEnd(toks []govaluate.ExpressionToken, i int) int {
	for i < len(toks) && toks[i].Kind == govaluate.PREFIX {
		i++
	}
	if i >= len(toks) {
		return -1
	}
	switch toks[i].Kind {
	case govaluate.NUMERIC, govaluate.VARIABLE:
		return i
	case govaluate.FUNCTION:
		i++
		if i >= len(toks) || toks[i].Kind != govaluate.CLAUSE {
			return i - 1
		}
		fallthrough
	case govaluate.CLAUSE:
		depth := 0
		for ; i < len(toks); i++ {
			switch toks[i].Kind {
			case govaluate.CLAUSE:
				depth++
			case govaluate.CLAUSE_CLOSE:
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

func (c *compiled) eval(te, tg, ev float64) (float64, error) {
	out, err := c.expr.Evaluate(map[string]interface{}{
		"T_e": te,
		"T_g": tg,
		"E_v": ev,
	})
	if err != nil {
		return 0, err
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("expression yielded %T, not a number", out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("expression yielded non-finite value %v", v)
	}
	return v, nil
}
