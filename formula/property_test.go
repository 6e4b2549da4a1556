package formula

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"testing"
)

var errReferenceDivZero = errors.New("division by zero")

// genExpr builds a random space separated expression over number literals
func genExpr(r *rand.Rand, depth int) string {
	var parts []string
	operands := 1 + r.Intn(3)
	for i := 0; i < operands; i++ {
		if i > 0 {
			parts = append(parts, string("+-*/"[r.Intn(4)]))
		}
		if depth > 0 && r.Intn(4) == 0 {
			parts = append(parts, "(", genExpr(r, depth-1), ")")
			continue
		}
		parts = append(parts, genNumber(r))
	}
	return strings.Join(parts, " ")
}

func genNumber(r *rand.Rand) string {
	n := strconv.Itoa(r.Intn(10))
	switch r.Intn(5) {
	case 0:
		return "-" + n
	case 1:
		return n + ".5"
	default:
		return n
	}
}

// referenceEval evaluates a space separated expression with shunting-yard
func referenceEval(formula string) (float64, error) {
	prec := map[string]int{"+": 1, "-": 1, "*": 2, "/": 2}
	var values []float64
	var ops []string

	apply := func() error {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		b, a := values[len(values)-1], values[len(values)-2]
		values = values[:len(values)-2]
		var v float64
		switch op {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return errReferenceDivZero
			}
			v = a / b
		}
		values = append(values, v)
		return nil
	}

	for _, tok := range strings.Fields(formula) {
		switch tok {
		case "(":
			ops = append(ops, tok)
		case ")":
			for ops[len(ops)-1] != "(" {
				if err := apply(); err != nil {
					return 0, err
				}
			}
			ops = ops[:len(ops)-1]
		case "+", "-", "*", "/":
			for len(ops) > 0 && ops[len(ops)-1] != "(" && prec[ops[len(ops)-1]] >= prec[tok] {
				if err := apply(); err != nil {
					return 0, err
				}
			}
			ops = append(ops, tok)
		default:
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return 0, fmt.Errorf("bad literal %q: %w", tok, err)
			}
			values = append(values, f)
		}
	}
	for len(ops) > 0 {
		if err := apply(); err != nil {
			return 0, err
		}
	}
	return values[0], nil
}

// TestRunFormulaMatchesReference compares random formulas with a
// shunting-yard evaluator
func TestRunFormulaMatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(2025))

	for i := 0; i < 500; i++ {
		formula := genExpr(r, 4)
		want, refErr := referenceEval(formula)

		res, err := NewEngine(nil, nil).RunFormula(formula, "p")
		if refErr != nil {
			if !errors.Is(err, ErrNumeric) {
				t.Errorf("RunFormula(%q) error = %v, want NumericError", formula, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("RunFormula(%q) unexpected error: %v", formula, err)
			continue
		}
		if res.Answer != want {
			t.Errorf("RunFormula(%q) = %v, want %v", formula, res.Answer, want)
		}
	}
}
