package formula

import (
	"math"
	"strconv"
)

// isWhitespace returns true if the given character is whitespace
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isDigit returns true if the given character is a digit
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isLetter returns true if the given character is an ASCII letter
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isOperator returns true if the given character is an arithmetic operator
func isOperator(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/'
}

// IsIdentifier reports whether s is a valid variable or metric id
func IsIdentifier(s string) bool {
	if s == "" || !isLetter(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isLetter(s[i]) && !isDigit(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func quoteRune(r rune) string {
	return strconv.QuoteRune(r)
}

func quoteString(s string) string {
	return strconv.Quote(s)
}

// toNumber attempts to convert a Go numeric value to a float64
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
