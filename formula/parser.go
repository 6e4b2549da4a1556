package formula

import "strconv"

// Binary operator precedences. Equal precedence associates to the left.
var precedences = map[string]int{
	"+": 10,
	"-": 10,
	"*": 20,
	"/": 20,
}

// parser represents a formula parser
type parser struct {
	tokens  []*Token
	current int
	depth   int
	config  *Config
}

// Parse builds the expression tree for a tokenized formula. Every
// function call is checked against the built-in function table, so an
// unknown name or a wrong argument count is reported before evaluation.
func Parse(formula string, tokens []*Token, cfg *Config) (Node, error) {
	p := &parser{
		tokens: tokens,
		config: orDefault(cfg),
	}

	root, err := p.parseFormula()
	if err != nil {
		return nil, withContext(err, formula, "")
	}

	if err := checkCalls(root); err != nil {
		return nil, withContext(err, formula, "")
	}

	return root, nil
}

func (p *parser) parseFormula() (Node, error) {
	if len(p.tokens) == 0 || p.peek().Type == TokenEOF {
		return nil, errorAt(KindSyntax, p.peek(), "empty formula")
	}

	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.Type {
	case TokenEOF:
		return root, nil
	case TokenRParen:
		return nil, errorAt(KindSyntax, tok, "unmatched ')'")
	default:
		return nil, errorAt(KindSyntax, tok, "unexpected %s %s after complete expression", tok.Type, quoteString(tok.Value))
	}
}

// parseExpression parses a full expression and enforces the nesting limit
func (p *parser) parseExpression() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.config.MaxDepth {
		return nil, errorAt(KindSyntax, p.peek(), "nesting deeper than %d levels", p.config.MaxDepth)
	}

	return p.parseBinaryExpression(0)
}

// parseBinaryExpression parses a binary expression whose operators bind at
// least as tightly as precedence
func (p *parser) parseBinaryExpression(precedence int) (Node, error) {
	left, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}

	for {
		token := p.peek()
		if token.Type != TokenOperator {
			break
		}

		prec := precedences[token.Value]
		if prec < precedence {
			break
		}

		p.current++
		right, err := p.parseBinaryExpression(prec + 1)
		if err != nil {
			return nil, err
		}

		left = &BinaryOp{
			Op:    token.Value[0],
			Left:  left,
			Right: right,
			Col:   token.Col,
		}
	}

	return left, nil
}

// parsePrimaryExpression parses a literal, variable, call, group or
// unary minus
func (p *parser) parsePrimaryExpression() (Node, error) {
	token := p.next()

	switch token.Type {
	case TokenNumber:
		value, err := strconv.ParseFloat(token.Value, 64)
		if err != nil || !isFinite(value) {
			return nil, errorAt(KindSyntax, token, "invalid number %s", token.Value)
		}
		return &Literal{Value: Number(value), Col: token.Col}, nil

	case TokenString:
		return &Literal{Value: Text(token.Value), Col: token.Col}, nil

	case TokenIdentifier:
		if p.peek().Type == TokenLParen {
			return p.parseFunctionCall(token)
		}
		return &Variable{Name: token.Value, Col: token.Col}, nil

	case TokenLParen:
		if p.peek().Type == TokenRParen {
			return nil, errorAt(KindSyntax, p.peek(), "empty parentheses")
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.Type != TokenRParen {
			return nil, errorAt(KindSyntax, closing, "missing ')' to close '(' at col %d", token.Col)
		}
		p.current++
		return expr, nil

	case TokenOperator:
		if token.Value == "-" {
			operand, err := p.parsePrimaryExpression()
			if err != nil {
				return nil, err
			}
			return &BinaryOp{
				Op:    '*',
				Left:  &Literal{Value: Number(-1), Col: token.Col},
				Right: operand,
				Col:   token.Col,
			}, nil
		}
		return nil, errorAt(KindSyntax, token, "missing operand before %s", quoteString(token.Value))

	case TokenEOF:
		return nil, errorAt(KindSyntax, token, "unexpected end of formula, missing operand")

	default:
		return nil, errorAt(KindSyntax, token, "unexpected %s", token.Type)
	}
}

// parseFunctionCall parses a comma-separated argument list after name
func (p *parser) parseFunctionCall(name *Token) (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.config.MaxDepth {
		return nil, errorAt(KindSyntax, name, "nesting deeper than %d levels", p.config.MaxDepth)
	}

	p.current++ // Skip (
	call := &FunctionCall{Name: name.Value, Col: name.Col}

	if p.peek().Type == TokenRParen {
		p.current++
		return call, nil
	}

	for {
		if tok := p.peek(); tok.Type == TokenComma || tok.Type == TokenRParen {
			return nil, errorAt(KindSyntax, tok, "empty argument %d in call to %s", len(call.Args)+1, name.Value)
		}

		arg, err := p.parseBinaryExpression(0)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		switch tok := p.next(); tok.Type {
		case TokenComma:
			continue
		case TokenRParen:
			return call, nil
		case TokenEOF:
			return nil, errorAt(KindSyntax, tok, "missing ')' to close call to %s", name.Value)
		default:
			return nil, errorAt(KindSyntax, tok, "expected ',' or ')' in call to %s, got %s", name.Value, tok.Type)
		}
	}
}

// peek returns the current token without consuming it
func (p *parser) peek() *Token {
	if p.current >= len(p.tokens) {
		return &Token{Type: TokenEOF}
	}
	return p.tokens[p.current]
}

// next consumes the current token
func (p *parser) next() *Token {
	tok := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}
	return tok
}

// checkCalls rejects unknown functions and wrong argument counts
func checkCalls(root Node) error {
	var err error
	Walk(root, func(n Node) bool {
		if err != nil {
			return false
		}
		call, ok := n.(*FunctionCall)
		if !ok {
			return true
		}
		fn, ok := LookupFunction(call.Name)
		if !ok {
			err = &Error{
				Kind:    KindUnknownFunction,
				Message: "unknown function " + call.Name,
				Name:    call.Name,
				Col:     call.Col,
			}
			return false
		}
		if e := fn.checkArity(len(call.Args)); e != nil {
			e.Name = call.Name
			e.Col = call.Col
			err = e
			return false
		}
		return true
	})
	return err
}
