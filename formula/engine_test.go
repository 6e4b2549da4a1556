package formula

import (
	"errors"
	"math"
	"testing"
)

func run(t *testing.T, e *Engine, formula, id string) float64 {
	t.Helper()
	res, err := e.RunFormula(formula, id)
	if err != nil {
		t.Fatalf("RunFormula(%q) unexpected error: %v", formula, err)
	}
	return res.Answer
}

// TestRunFormulaArithmetic verifies PEMDAS and left-to-right evaluation
func TestRunFormulaArithmetic(t *testing.T) {
	tests := []struct {
		formula string
		want    float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 2 / 5", 1},
		{"8 / 4 * 2", 4},
		{"10 - 4 - 3", 3},
		{"-2 * -3", 6},
		{"-(2 + 3) * 2", -10},
		{"2 - -3", 5},
		{".5 + 1.25", 1.75},
		{"((7))", 7},
	}

	for _, tt := range tests {
		e := NewEngine(nil, nil)
		if got := run(t, e, tt.formula, "x"); got != tt.want {
			t.Errorf("RunFormula(%q) = %v, want %v", tt.formula, got, tt.want)
		}
	}
}

// TestRunFormulaVariablesAndFunctions verifies lookups and nested calls
func TestRunFormulaVariablesAndFunctions(t *testing.T) {
	values := ValueDict{"a": Number(3), "b": Number(4)}

	tests := []struct {
		formula string
		want    float64
	}{
		{"a + b * 2", 11},
		{"sum(a, b, 5)", 12},
		{"sum(a, avg(b, 10))", 10},
		{"min(a, b, -1)", -1},
		{"max(a, b) * 2", 8},
		{"abs(a - b)", 1},
		{"floor(b / a)", 1},
		{"ceil(b / a)", 2},
		{"round(2.5)", 3},
		{"round(-2.5)", -3},
		{"round(1.25, 1)", 1.3},
		{"Avg(a, b)", 3.5},
		{"sum(a * 2, (b + 1) / 5)", 7},
	}

	for _, tt := range tests {
		e := NewEngine(values, nil)
		if got := run(t, e, tt.formula, "m"); got != tt.want {
			t.Errorf("RunFormula(%q) = %v, want %v", tt.formula, got, tt.want)
		}
	}
}

// TestRunFormulaCrossMetric verifies cached derived metrics are usable as variables
func TestRunFormulaCrossMetric(t *testing.T) {
	e := NewEngine(ValueDict{"a": Number(10)}, nil)

	if got := run(t, e, "a / 2", "half"); got != 5 {
		t.Fatalf("half = %v, want 5", got)
	}
	if cached, ok := e.Cached("half"); !ok || cached != 5 {
		t.Fatalf("Cached(half) = %v, %v, want 5, true", cached, ok)
	}

	before := e.CacheStats()
	if got := run(t, e, "half + half", "total"); got != 10 {
		t.Fatalf("total = %v, want 10", got)
	}
	after := e.CacheStats()
	if after.Hits-before.Hits != 2 {
		t.Errorf("cache hits during total = %d, want 2", after.Hits-before.Hits)
	}

	answers := e.Answers()
	if len(answers) != 2 || answers["half"] != 5 || answers["total"] != 10 {
		t.Errorf("Answers() = %v", answers)
	}
}

// TestRunFormulaCacheShadowsValues verifies the cache is consulted before record values
func TestRunFormulaCacheShadowsValues(t *testing.T) {
	e := NewEngine(ValueDict{"score": Number(1)}, nil)
	run(t, e, "40 + 2", "score")
	if got := run(t, e, "score", "copy"); got != 42 {
		t.Errorf("score = %v, want cached 42", got)
	}
}

// TestRunFormulaMissingVariable verifies the error names identifier, formula and id
func TestRunFormulaMissingVariable(t *testing.T) {
	e := NewEngine(ValueDict{"a": Number(1)}, nil)

	_, err := e.RunFormula("a + missingVar", "broken")
	if !errors.Is(err, ErrMissingVariable) {
		t.Fatalf("error = %v, want MissingVariableError", err)
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if fe.Name != "missingVar" || fe.Formula != "a + missingVar" || fe.MetricID != "broken" || fe.Col != 5 {
		t.Errorf("error = %+v", fe)
	}

	if _, ok := e.Cached("broken"); ok {
		t.Error("failed formula must not be cached")
	}
	if got := run(t, e, "a + 1", "ok"); got != 2 {
		t.Errorf("engine after failure = %v, want 2", got)
	}
}

// TestRunFormulaErrors verifies the error taxonomy
func TestRunFormulaErrors(t *testing.T) {
	values := ValueDict{
		"a":       Number(3),
		"b":       Number(4),
		"team":    Text("254"),
		"endgame": Text("deep"),
		"bad":     Number(math.NaN()),
	}

	tests := []struct {
		formula string
		want    error
	}{
		{"(a + b", ErrSyntax},
		{"a + b)", ErrSyntax},
		{"notAFunc(a)", ErrUnknownFunction},
		{"a $ b", ErrLex},
		{"a / (b - 4)", ErrNumeric},
		{"sum(a, 1 / 0)", ErrNumeric},
		{"bad + 1", ErrNumeric},
		{"team + 1", ErrArityOrType},
		{"-endgame", ErrArityOrType},
		{"sum(team)", ErrArityOrType},
		{"avg(a, endgame)", ErrArityOrType},
		{"endgame", ErrArityOrType},
		{`"text"`, ErrArityOrType},
		{"round(a, 1.5)", ErrArityOrType},
		{"round(a, -1)", ErrArityOrType},
		{"abs(a, b)", ErrArityOrType},
		{"sum(a, nope)", ErrMissingVariable},
	}

	for _, tt := range tests {
		e := NewEngine(values, nil)
		_, err := e.RunFormula(tt.formula, "m")
		if !errors.Is(err, tt.want) {
			t.Errorf("RunFormula(%q) error = %v, want kind %s", tt.formula, err, tt.want.(*Error).Kind)
			continue
		}
		if KindOf(err) != tt.want.(*Error).Kind {
			t.Errorf("KindOf(%v) = %s", err, KindOf(err))
		}
	}
}

// TestRunFormulaText verifies text values pass through to text-accepting functions
func TestRunFormulaText(t *testing.T) {
	e := NewEngine(ValueDict{"endgame": Text("deep"), "parked": Number(1)}, nil)

	if got := run(t, e, `equals(endgame, "deep") * 12`, "climb"); got != 12 {
		t.Errorf("climb = %v, want 12", got)
	}
	if got := run(t, e, `equals(endgame, 'shallow')`, "shallow"); got != 0 {
		t.Errorf("shallow = %v, want 0", got)
	}
	if got := run(t, e, `equals(parked, "1")`, "kinds"); got != 0 {
		t.Errorf("number equals text = %v, want 0", got)
	}
}

// TestRunFormulaDeterminism verifies fresh engines agree
func TestRunFormulaDeterminism(t *testing.T) {
	values := ValueDict{"a": Number(1.1), "b": Number(2.2), "c": Number(3.3)}
	formula := "avg(a, b, c) / 3 + max(a * b, c) - a / b * c"

	first, err := NewEngine(values, nil).RunFormula(formula, "x")
	if err != nil {
		t.Fatalf("RunFormula() unexpected error: %v", err)
	}
	second, err := NewEngine(values, nil).RunFormula(formula, "x")
	if err != nil {
		t.Fatalf("RunFormula() unexpected error: %v", err)
	}
	if first.Answer != second.Answer {
		t.Errorf("answers differ: %v and %v", first.Answer, second.Answer)
	}
}

// TestRunProgram verifies a compiled program evaluates against many records
func TestRunProgram(t *testing.T) {
	p, err := Compile("points * 2", nil)
	if err != nil {
		t.Fatalf("Compile() unexpected error: %v", err)
	}
	if p.String() != "(points * 2)" {
		t.Errorf("String() = %s", p.String())
	}
	if vars := p.Variables(); len(vars) != 1 || vars[0] != "points" {
		t.Errorf("Variables() = %v", vars)
	}

	for i, want := range []float64{0, 2, 4} {
		e := NewEngine(ValueDict{"points": Number(float64(i))}, nil)
		res, err := e.Run(p, "double")
		if err != nil {
			t.Fatalf("Run() unexpected error: %v", err)
		}
		if res.Answer != want {
			t.Errorf("record %d answer = %v, want %v", i, res.Answer, want)
		}
		if res.TokenizeTime != p.TokenizeTime || res.ParseTime != p.ParseTime {
			t.Error("result timings must carry the compile timings")
		}
	}
}

// TestRunFormulaEmptyID verifies an empty id skips caching
func TestRunFormulaEmptyID(t *testing.T) {
	e := NewEngine(nil, nil)
	run(t, e, "1 + 1", "")
	if e.CacheStats().Size != 0 {
		t.Error("empty id must not be cached")
	}
}

type opaqueNode struct{}

func (opaqueNode) String() string { return "opaque" }
func (opaqueNode) node()          {}

// TestRunStuck verifies that an irreducible tree fails instead of looping
func TestRunStuck(t *testing.T) {
	e := NewEngine(nil, nil)
	p := &Program{Source: "opaque", Root: &BinaryOp{Op: '+', Left: &Literal{Value: Number(1)}, Right: opaqueNode{}}}

	_, err := e.Run(p, "stuck")
	if !errors.Is(err, ErrStuckEvaluation) {
		t.Fatalf("Run() error = %v, want StuckEvaluationError", err)
	}
}

// TestCompileMaxLength verifies the formula length limit
func TestCompileMaxLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 5
	if _, err := Compile("1 + 2 + 3", cfg); !errors.Is(err, ErrSyntax) {
		t.Errorf("Compile() error = %v, want SyntaxError", err)
	}
}

// TestConfigValidate verifies configuration validation
func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxPasses = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with zero passes should return error")
	}
}
