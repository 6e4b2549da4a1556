package formula

import (
	"errors"
	"testing"
)

func tokenValues(tokens []*Token) []string {
	values := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == TokenEOF {
			continue
		}
		values = append(values, t.Value)
	}
	return values
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestTokenize verifies token splitting and unary minus folding
func TestTokenize(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"2 + 3 * 4", []string{"2", "+", "3", "*", "4"}},
		{"2-3", []string{"2", "-", "3"}},
		{"2 -3", []string{"2", "-", "3"}},
		{"-3 + a", []string{"-3", "+", "a"}},
		{"2*-3", []string{"2", "*", "-3"}},
		{"a - -3", []string{"a", "-", "-3"}},
		{"(-.5)", []string{"(", "-.5", ")"}},
		{"sum(a, -1)", []string{"sum", "(", "a", ",", "-1", ")"}},
		{"-a", []string{"-", "a"}},
		{"auto_L4 / 2.25", []string{"auto_L4", "/", "2.25"}},
		{"\tx\n+\ry ", []string{"x", "+", "y"}},
	}

	for _, tt := range tests {
		tokens, err := Tokenize(tt.formula)
		if err != nil {
			t.Errorf("Tokenize(%q) unexpected error: %v", tt.formula, err)
			continue
		}
		if got := tokenValues(tokens); !equalStrings(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.formula, got, tt.want)
		}
		if last := tokens[len(tokens)-1]; last.Type != TokenEOF {
			t.Errorf("Tokenize(%q) last token = %v, want EOF", tt.formula, last.Type)
		}
	}
}

// TestTokenizeTypes verifies token types and columns
func TestTokenizeTypes(t *testing.T) {
	tokens, err := Tokenize(`ab + 12, equals(x, "deep")`)
	if err != nil {
		t.Fatalf("Tokenize() unexpected error: %v", err)
	}

	want := []struct {
		typ TokenType
		col int
	}{
		{TokenIdentifier, 1},
		{TokenOperator, 4},
		{TokenNumber, 6},
		{TokenComma, 8},
		{TokenIdentifier, 10},
		{TokenLParen, 16},
		{TokenIdentifier, 17},
		{TokenComma, 18},
		{TokenString, 20},
		{TokenRParen, 26},
		{TokenEOF, 27},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Col != w.col {
			t.Errorf("token %d = %v at col %d, want %v at col %d", i, tokens[i].Type, tokens[i].Col, w.typ, w.col)
		}
	}
	if tokens[8].Value != "deep" {
		t.Errorf("string token value = %q, want %q", tokens[8].Value, "deep")
	}
}

// TestTokenizeStringEscapes verifies escape handling in text literals
func TestTokenizeStringEscapes(t *testing.T) {
	tokens, err := Tokenize(`'it\'s' "a\"b"`)
	if err != nil {
		t.Fatalf("Tokenize() unexpected error: %v", err)
	}
	if tokens[0].Value != "it's" || tokens[1].Value != `a"b` {
		t.Errorf("got %q and %q", tokens[0].Value, tokens[1].Value)
	}
}

// TestTokenizeErrors verifies that bad input fails with a LexError
func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		formula string
		col     int
	}{
		{"a $ b", 3},
		{"a # b", 3},
		{"1.2.3", 1},
		{"1..2", 1},
		{"3abc", 1},
		{"2 + 1.", 5},
		{"'open", 1},
		{`"bad \q"`, 6},
		{"a + é", 5},
		{"a % b", 3},
		{"a ^ 2", 3},
	}

	for _, tt := range tests {
		_, err := Tokenize(tt.formula)
		if !errors.Is(err, ErrLex) {
			t.Errorf("Tokenize(%q) error = %v, want LexError", tt.formula, err)
			continue
		}
		var fe *Error
		errors.As(err, &fe)
		if fe.Col != tt.col {
			t.Errorf("Tokenize(%q) error col = %d, want %d", tt.formula, fe.Col, tt.col)
		}
		if fe.Formula != tt.formula {
			t.Errorf("Tokenize(%q) error formula = %q", tt.formula, fe.Formula)
		}
	}
}
