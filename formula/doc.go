// Package formula evaluates derived scouting metrics.
//
// A derived metric is an admin-authored formula over the raw fields of a
// scouting form, for example:
//
//	autoCoral * 3 + teleopCoral * 2
//	avg(cycleA, cycleB, cycleC) / 2
//	round(sum(l1, l2, l3, l4) / matchSeconds, 2)
//	equals(endgame, "deep")
//
// # Grammar
//
//	formula  = expr
//	expr     = term { ("+" | "-") term }
//	term     = unary { ("*" | "/") unary }
//	unary    = "-" unary | primary
//	primary  = number | string | ident | call | "(" expr ")"
//	call     = ident "(" [ expr { "," expr } ] ")"
//
// Operators of the same tier associate to the left, so "10 / 2 / 5" is 1.
// There is no exponentiation, no assignment and no control flow.
//
// # Evaluation
//
// Compile tokenizes and parses a formula into a Program. An Engine bound
// to one record's ValueDict evaluates programs by alternating two passes
// until one scalar remains: the function pass resolves variables and
// dispatches calls (arguments first), the arithmetic pass folds binary
// operations. Answers are cached per record by derived metric id, so
//
//	engine.RunFormula("a / 2", "half")
//	engine.RunFormula("half + half", "total")
//
// reads the cached "half" without parsing its formula again. Callers must
// run formulas in dependency order; the schema package computes that order.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of lex, syntax,
// unknown_function, arity_or_type, missing_variable, stuck_evaluation or
// numeric. Use errors.Is with ErrLex, ErrSyntax and friends to test the
// kind. An error aborts one formula only; the engine stays usable.
package formula
