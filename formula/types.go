package formula

import (
	"fmt"
	"strconv"
)

// TokenType represents formula token type
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenIdentifier
	TokenOperator
	TokenLParen
	TokenRParen
	TokenComma
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "end of formula",
	TokenNumber:     "number",
	TokenString:     "string",
	TokenIdentifier: "identifier",
	TokenOperator:   "operator",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenComma:      ",",
}

// String returns the token type name used in error messages
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset in the formula
	Line  int
	Col   int
}

// ValueKind tells a number from a text value
type ValueKind uint8

const (
	NumberKind ValueKind = iota
	TextKind
)

func (k ValueKind) String() string {
	if k == TextKind {
		return "text"
	}
	return "number"
}

// Value is a scalar: a number or a pass-through text string.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Number returns a numeric value
func Number(f float64) Value {
	return Value{kind: NumberKind, num: f}
}

// Text returns a text value
func Text(s string) Value {
	return Value{kind: TextKind, text: s}
}

// Kind returns the value kind
func (v Value) Kind() ValueKind { return v.kind }

// IsText reports whether the value is text
func (v Value) IsText() bool { return v.kind == TextKind }

// Float returns the numeric value and false for text values
func (v Value) Float() (float64, bool) {
	if v.kind != NumberKind {
		return 0, false
	}
	return v.num, true
}

// Str returns the text value and false for numbers
func (v Value) Str() (string, bool) {
	if v.kind != TextKind {
		return "", false
	}
	return v.text, true
}

// Equal reports whether both values have the same kind and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == TextKind {
		return v.text == o.text
	}
	return v.num == o.num
}

func (v Value) String() string {
	if v.kind == TextKind {
		return strconv.Quote(v.text)
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// ValueDict maps raw metric ids to the values of one scouting record.
type ValueDict map[string]Value

// Config represents engine configuration
type Config struct {
	MaxDepth  int // maximum nesting of groups and calls
	MaxLength int // maximum formula length in bytes
	MaxPasses int // reduction passes before giving up
}

// DefaultConfig returns default engine configuration
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:  32,
		MaxLength: 4096,
		MaxPasses: 16,
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max depth must be greater than 0, got %d", c.MaxDepth)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("max length must be greater than 0, got %d", c.MaxLength)
	}
	if c.MaxPasses < 1 {
		return fmt.Errorf("max passes must be greater than 0, got %d", c.MaxPasses)
	}
	return nil
}

func orDefault(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return cfg
}
