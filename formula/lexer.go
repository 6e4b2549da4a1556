package formula

import (
	"strings"
	"unicode/utf8"
)

// Tokenize splits a formula into tokens. The returned slice always ends
// with a TokenEOF token.
//
// A '-' in operand position (start of formula, after an operator, '(' or
// ',') that is immediately followed by a digit is folded into the numeric
// literal, so "2*-3" yields 2, *, -3 while "2-3" yields 2, -, 3.
func Tokenize(formula string) ([]*Token, error) {
	var tokens []*Token
	current := 0
	line := 1
	col := 1

	for current < len(formula) {
		char := formula[current]

		switch {
		case isWhitespace(char):
			if char == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			current++
			continue

		case startsNumber(formula, current):
			token, newPos, err := readNumber(formula, current, line, col)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
			col += newPos - current
			current = newPos

		case char == '-' && operandExpected(tokens) && startsNumber(formula, current+1):
			token, newPos, err := readNumber(formula, current+1, line, col)
			if err != nil {
				return nil, err
			}
			token.Value = "-" + token.Value
			token.Pos = current
			tokens = append(tokens, token)
			col += newPos - current
			current = newPos

		case isLetter(char):
			token, newPos := readIdentifier(formula, current, line, col)
			tokens = append(tokens, token)
			col += newPos - current
			current = newPos

		case char == '"' || char == '\'':
			token, newPos, err := readString(formula, current, line, col)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
			col += utf8.RuneCountInString(formula[current:newPos])
			current = newPos

		case isOperator(char):
			tokens = append(tokens, &Token{
				Type:  TokenOperator,
				Value: string(char),
				Pos:   current,
				Line:  line,
				Col:   col,
			})
			current++
			col++

		case char == '(' || char == ')' || char == ',':
			tokens = append(tokens, &Token{
				Type:  punctuationType(char),
				Value: string(char),
				Pos:   current,
				Line:  line,
				Col:   col,
			})
			current++
			col++

		default:
			r, _ := utf8.DecodeRuneInString(formula[current:])
			return nil, &Error{
				Kind:    KindLex,
				Message: "unexpected character " + quoteRune(r),
				Formula: formula,
				Col:     col,
			}
		}
	}

	tokens = append(tokens, &Token{Type: TokenEOF, Pos: len(formula), Line: line, Col: col})
	return tokens, nil
}

// readNumber reads a decimal literal. Exponents are not supported.
func readNumber(input string, start int, line int, col int) (*Token, int, error) {
	var value strings.Builder
	current := start
	hasDot := false
	digitsAfterDot := 0

	for current < len(input) {
		char := input[current]
		if isDigit(char) {
			value.WriteByte(char)
			if hasDot {
				digitsAfterDot++
			}
		} else if char == '.' && !hasDot {
			value.WriteByte(char)
			hasDot = true
		} else {
			break
		}
		current++
	}

	malformed := hasDot && digitsAfterDot == 0
	if current < len(input) {
		next := input[current]
		if next == '.' || isLetter(next) || next == '_' {
			malformed = true
			for current < len(input) && (isDigit(input[current]) || isLetter(input[current]) || input[current] == '.' || input[current] == '_') {
				value.WriteByte(input[current])
				current++
			}
		}
	}
	if malformed {
		return nil, 0, &Error{
			Kind:    KindLex,
			Message: "malformed numeric literal " + quoteString(value.String()),
			Formula: input,
			Col:     col,
		}
	}

	return &Token{
		Type:  TokenNumber,
		Value: value.String(),
		Pos:   start,
		Line:  line,
		Col:   col,
	}, current, nil
}

// readIdentifier reads an identifier token from the input
func readIdentifier(input string, start int, line int, col int) (*Token, int) {
	current := start
	for current < len(input) {
		char := input[current]
		if isLetter(char) || isDigit(char) || char == '_' {
			current++
		} else {
			break
		}
	}

	return &Token{
		Type:  TokenIdentifier,
		Value: input[start:current],
		Pos:   start,
		Line:  line,
		Col:   col,
	}, current
}

// readString reads a quoted text literal
func readString(input string, start int, line int, col int) (*Token, int, error) {
	var value strings.Builder
	quote := input[start]
	current := start + 1

	for current < len(input) {
		char := input[current]
		if char == quote {
			current++
			return &Token{
				Type:  TokenString,
				Value: value.String(),
				Pos:   start,
				Line:  line,
				Col:   col,
			}, current, nil
		}
		if char == '\\' && current+1 < len(input) {
			current++
			char = input[current]
			switch char {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case '\\', '"', '\'':
				value.WriteByte(char)
			default:
				return nil, 0, &Error{
					Kind:    KindLex,
					Message: "invalid escape sequence \\" + string(char),
					Formula: input,
					Col:     col + utf8.RuneCountInString(input[start:current]) - 1,
				}
			}
		} else {
			value.WriteByte(char)
		}
		current++
	}

	return nil, 0, &Error{
		Kind:    KindLex,
		Message: "unterminated string",
		Formula: input,
		Col:     col,
	}
}

// operandExpected reports whether the next token must start an operand
func operandExpected(tokens []*Token) bool {
	if len(tokens) == 0 {
		return true
	}
	switch tokens[len(tokens)-1].Type {
	case TokenOperator, TokenLParen, TokenComma:
		return true
	default:
		return false
	}
}

func startsNumber(input string, pos int) bool {
	if pos >= len(input) {
		return false
	}
	if isDigit(input[pos]) {
		return true
	}
	return input[pos] == '.' && pos+1 < len(input) && isDigit(input[pos+1])
}

func punctuationType(c byte) TokenType {
	switch c {
	case '(':
		return TokenLParen
	case ')':
		return TokenRParen
	default:
		return TokenComma
	}
}
