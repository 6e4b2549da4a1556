package formula

import (
	"math"
	"sort"
	"strings"
)

// ArgKind declares what an argument slot accepts
type ArgKind uint8

const (
	ArgNumber ArgKind = iota // numbers only
	ArgAny                   // numbers or text
)

// Function represents an allow-listed formula function
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int       // -1 for variadic
	Kinds   []ArgKind // per position; the last kind repeats
	Handler func(args []Value) (Value, error)
}

// kindAt returns the accepted kind for argument i
func (f *Function) kindAt(i int) ArgKind {
	if len(f.Kinds) == 0 {
		return ArgNumber
	}
	if i >= len(f.Kinds) {
		return f.Kinds[len(f.Kinds)-1]
	}
	return f.Kinds[i]
}

// checkArity validates the argument count
func (f *Function) checkArity(n int) *Error {
	switch {
	case n < f.MinArgs && f.MinArgs == f.MaxArgs:
		return newError(KindArityOrType, "%s expects %d argument(s), got %d", f.Name, f.MinArgs, n)
	case n < f.MinArgs:
		return newError(KindArityOrType, "%s expects at least %d argument(s), got %d", f.Name, f.MinArgs, n)
	case f.MaxArgs >= 0 && n > f.MaxArgs:
		return newError(KindArityOrType, "%s expects at most %d argument(s), got %d", f.Name, f.MaxArgs, n)
	}
	return nil
}

// validate checks count and kinds of resolved arguments
func (f *Function) validate(args []Value) *Error {
	if err := f.checkArity(len(args)); err != nil {
		return err
	}
	for i, arg := range args {
		if arg.IsText() && f.kindAt(i) == ArgNumber {
			return newError(KindArityOrType, "argument %d of %s must be a number, got text %s", i+1, f.Name, arg)
		}
	}
	return nil
}

// call validates the arguments, then runs the handler
func (f *Function) call(args []Value) (Value, error) {
	if err := f.validate(args); err != nil {
		return Value{}, err
	}
	return f.Handler(args)
}

// LookupFunction returns the built-in function with the given name.
// Names are case-insensitive.
func LookupFunction(name string) (*Function, bool) {
	fn, ok := builtins[strings.ToLower(name)]
	return fn, ok
}

// FunctionNames returns the allow-listed function names in sorted order
func FunctionNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtins = map[string]*Function{
	"sum": {
		Name:    "sum",
		MinArgs: 1,
		MaxArgs: -1,
		Handler: func(args []Value) (Value, error) {
			return Number(sumOf(args)), nil
		},
	},
	"avg": {
		Name:    "avg",
		MinArgs: 1,
		MaxArgs: -1,
		Handler: func(args []Value) (Value, error) {
			return Number(sumOf(args) / float64(len(args))), nil
		},
	},
	"min": {
		Name:    "min",
		MinArgs: 1,
		MaxArgs: -1,
		Handler: func(args []Value) (Value, error) {
			m := args[0].num
			for _, a := range args[1:] {
				m = math.Min(m, a.num)
			}
			return Number(m), nil
		},
	},
	"max": {
		Name:    "max",
		MinArgs: 1,
		MaxArgs: -1,
		Handler: func(args []Value) (Value, error) {
			m := args[0].num
			for _, a := range args[1:] {
				m = math.Max(m, a.num)
			}
			return Number(m), nil
		},
	},
	"abs":   unary("abs", math.Abs),
	"floor": unary("floor", math.Floor),
	"ceil":  unary("ceil", math.Ceil),
	"round": {
		Name:    "round",
		MinArgs: 1,
		MaxArgs: 2,
		Handler: func(args []Value) (Value, error) {
			if len(args) == 1 {
				return Number(math.Round(args[0].num)), nil
			}
			digits := args[1].num
			if digits != math.Trunc(digits) || digits < 0 || digits > 10 {
				return Value{}, newError(KindArityOrType, "round digits must be an integer between 0 and 10, got %s", args[1])
			}
			scale := math.Pow(10, digits)
			return Number(math.Round(args[0].num*scale) / scale), nil
		},
	},
	"equals": {
		Name:    "equals",
		MinArgs: 2,
		MaxArgs: 2,
		Kinds:   []ArgKind{ArgAny, ArgAny},
		Handler: func(args []Value) (Value, error) {
			if args[0].Equal(args[1]) {
				return Number(1), nil
			}
			return Number(0), nil
		},
	},
}

func unary(name string, fn func(float64) float64) *Function {
	return &Function{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Handler: func(args []Value) (Value, error) {
			return Number(fn(args[0].num)), nil
		},
	}
}

func sumOf(args []Value) float64 {
	var sum float64
	for _, a := range args {
		sum += a.num
	}
	return sum
}
