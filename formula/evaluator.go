package formula

// resolver reduces expression trees to scalars for one record. It never
// mutates the tree it is given, so compiled programs can be shared.
type resolver struct {
	values ValueDict
	cache  *Cache
	config *Config
}

// resolve alternates function and arithmetic passes until the tree is a
// single scalar. A pass that changes nothing means the tree cannot be
// reduced any further.
func (r *resolver) resolve(n Node) (Value, error) {
	for pass := 0; ; pass++ {
		if lit, ok := n.(*Literal); ok {
			return lit.Value, nil
		}
		if pass == r.config.MaxPasses {
			return Value{}, newError(KindStuckEvaluation, "formula did not reduce to a single value after %d passes", pass)
		}

		next, fnChanged, err := r.functionPass(n)
		if err != nil {
			return Value{}, err
		}
		next, arithChanged, err := r.arithmeticPass(next)
		if err != nil {
			return Value{}, err
		}
		if !fnChanged && !arithChanged {
			return Value{}, newError(KindStuckEvaluation, "no reduction possible for %s", n)
		}
		n = next
	}
}

// functionPass replaces variables with their values and collapses every
// function call into the value it returns. Call arguments are resolved
// through the full pipeline first.
func (r *resolver) functionPass(n Node) (Node, bool, error) {
	switch t := n.(type) {
	case *Variable:
		v, err := r.lookup(t)
		if err != nil {
			return nil, false, err
		}
		return &Literal{Value: v, Col: t.Col}, true, nil

	case *BinaryOp:
		left, lc, err := r.functionPass(t.Left)
		if err != nil {
			return nil, false, err
		}
		right, rc, err := r.functionPass(t.Right)
		if err != nil {
			return nil, false, err
		}
		if !lc && !rc {
			return t, false, nil
		}
		return &BinaryOp{Op: t.Op, Left: left, Right: right, Col: t.Col}, true, nil

	case *FunctionCall:
		v, err := r.call(t)
		if err != nil {
			return nil, false, err
		}
		return &Literal{Value: v, Col: t.Col}, true, nil

	default:
		return n, false, nil
	}
}

// arithmeticPass folds every binary operation whose operands are scalars
func (r *resolver) arithmeticPass(n Node) (Node, bool, error) {
	op, ok := n.(*BinaryOp)
	if !ok {
		return n, false, nil
	}

	left, lc, err := r.arithmeticPass(op.Left)
	if err != nil {
		return nil, false, err
	}
	right, rc, err := r.arithmeticPass(op.Right)
	if err != nil {
		return nil, false, err
	}

	ll, lok := left.(*Literal)
	rl, rok := right.(*Literal)
	if lok && rok {
		v, err := applyOperator(op, ll.Value, rl.Value)
		if err != nil {
			return nil, false, err
		}
		return &Literal{Value: v, Col: op.Col}, true, nil
	}

	if !lc && !rc {
		return op, false, nil
	}
	return &BinaryOp{Op: op.Op, Left: left, Right: right, Col: op.Col}, true, nil
}

// call resolves the arguments of a function call and dispatches it
func (r *resolver) call(c *FunctionCall) (Value, error) {
	fn, ok := LookupFunction(c.Name)
	if !ok {
		return Value{}, &Error{
			Kind:    KindUnknownFunction,
			Message: "unknown function " + c.Name,
			Name:    c.Name,
			Col:     c.Col,
		}
	}

	args := make([]Value, len(c.Args))
	for i, arg := range c.Args {
		v, err := r.resolve(arg)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	v, err := fn.call(args)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			fe.Name = c.Name
			if fe.Col == 0 {
				fe.Col = c.Col
			}
		}
		return Value{}, err
	}
	if f, ok := v.Float(); ok && !isFinite(f) {
		return Value{}, &Error{
			Kind:    KindNumeric,
			Message: c.Name + " returned a non-finite number",
			Name:    c.Name,
			Col:     c.Col,
		}
	}
	return v, nil
}

// lookup resolves a variable against the cache, then the record values
func (r *resolver) lookup(v *Variable) (Value, error) {
	if answer, ok := r.cache.Get(v.Name); ok {
		return Number(answer), nil
	}

	value, ok := r.values[v.Name]
	if !ok {
		return Value{}, &Error{
			Kind:    KindMissingVariable,
			Message: "unknown variable " + v.Name,
			Name:    v.Name,
			Col:     v.Col,
		}
	}
	if f, ok := value.Float(); ok && !isFinite(f) {
		return Value{}, &Error{
			Kind:    KindNumeric,
			Message: "variable " + v.Name + " is not a finite number",
			Name:    v.Name,
			Col:     v.Col,
		}
	}
	return value, nil
}

// applyOperator applies + - * / to two scalars
func applyOperator(op *BinaryOp, left, right Value) (Value, error) {
	l, lok := left.Float()
	r, rok := right.Float()
	if !lok || !rok {
		text := left
		if lok {
			text = right
		}
		return Value{}, &Error{
			Kind:    KindArityOrType,
			Message: "operator " + string(op.Op) + " cannot use text value " + text.String(),
			Col:     op.Col,
		}
	}

	var result float64
	switch op.Op {
	case '+':
		result = l + r
	case '-':
		result = l - r
	case '*':
		result = l * r
	case '/':
		if r == 0 {
			return Value{}, &Error{Kind: KindNumeric, Message: "division by zero", Col: op.Col}
		}
		result = l / r
	default:
		return Value{}, &Error{Kind: KindSyntax, Message: "unsupported operator " + string(op.Op), Col: op.Col}
	}

	if !isFinite(result) {
		return Value{}, &Error{
			Kind:    KindNumeric,
			Message: "result of " + string(op.Op) + " is not a finite number",
			Col:     op.Col,
		}
	}
	return Number(result), nil
}
