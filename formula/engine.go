package formula

import (
	"time"
)

// Program is a tokenized and parsed formula. It is immutable and may be
// shared by engines evaluating different records.
type Program struct {
	Source       string
	Root         Node
	TokenizeTime time.Duration
	ParseTime    time.Duration
	variables    []string
}

// Compile tokenizes and parses a formula once
func Compile(formula string, cfg *Config) (*Program, error) {
	cfg = orDefault(cfg)
	if len(formula) > cfg.MaxLength {
		return nil, &Error{
			Kind:    KindSyntax,
			Message: "formula longer than the maximum allowed length",
			Formula: formula,
		}
	}

	start := time.Now()
	tokens, err := Tokenize(formula)
	tokenizeTime := time.Since(start)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	root, err := Parse(formula, tokens, cfg)
	parseTime := time.Since(start)
	if err != nil {
		return nil, err
	}

	return &Program{
		Source:       formula,
		Root:         root,
		TokenizeTime: tokenizeTime,
		ParseTime:    parseTime,
		variables:    Variables(root),
	}, nil
}

// Variables returns the identifiers the program references
func (p *Program) Variables() []string {
	vars := make([]string, len(p.variables))
	copy(vars, p.variables)
	return vars
}

// String returns the fully parenthesised form of the program
func (p *Program) String() string {
	return p.Root.String()
}

// Result is the answer of one formula with phase timings. Timings are
// diagnostic only.
type Result struct {
	Answer       float64       `json:"answer"`
	TokenizeTime time.Duration `json:"tokenize_time"`
	ParseTime    time.Duration `json:"parse_time"`
	ResolveTime  time.Duration `json:"resolve_time"`
}

// Engine evaluates derived metric formulas for one scouting record.
// Answers are cached by derived metric id so later formulas of the same
// batch can reference them as variables.
//
// An Engine is not safe for concurrent use. Create one per record.
type Engine struct {
	values ValueDict
	cache  *Cache
	config *Config
}

// NewEngine creates an engine bound to one record's values.
//
// Usage:
//
//	values := formula.ConvertValuesDict(rawRecord)
//	engine := formula.NewEngine(values, nil)
//
//	half, err := engine.RunFormula("autoPoints / 2", "halfAuto")
//	if err != nil {
//	    return err
//	}
//
//	// halfAuto is now visible to later formulas of this record
//	total, err := engine.RunFormula("halfAuto + teleopPoints", "adjusted")
func NewEngine(values ValueDict, cfg *Config) *Engine {
	if values == nil {
		values = ValueDict{}
	}
	return &Engine{
		values: values,
		cache:  NewCache(),
		config: orDefault(cfg),
	}
}

// RunFormula compiles and evaluates a formula, then caches the answer
// under id. An empty id evaluates without caching.
func (e *Engine) RunFormula(formula, id string) (*Result, error) {
	p, err := Compile(formula, e.config)
	if err != nil {
		return nil, withContext(err, formula, id)
	}
	return e.Run(p, id)
}

// Run evaluates a compiled program, then caches the answer under id.
// The tokenize and parse timings of the result are those of the compile.
func (e *Engine) Run(p *Program, id string) (*Result, error) {
	r := &resolver{values: e.values, cache: e.cache, config: e.config}

	start := time.Now()
	value, err := r.resolve(p.Root)
	resolveTime := time.Since(start)
	if err != nil {
		return nil, withContext(err, p.Source, id)
	}

	answer, ok := value.Float()
	if !ok {
		return nil, &Error{
			Kind:     KindArityOrType,
			Message:  "formula resolved to text " + value.String() + ", expected a number",
			Formula:  p.Source,
			MetricID: id,
		}
	}

	if id != "" {
		e.cache.Set(id, answer)
	}

	return &Result{
		Answer:       answer,
		TokenizeTime: p.TokenizeTime,
		ParseTime:    p.ParseTime,
		ResolveTime:  resolveTime,
	}, nil
}

// Cached returns the answer computed earlier for a derived metric id
func (e *Engine) Cached(id string) (float64, bool) {
	v, ok := e.cache.items[id]
	return v, ok
}

// Answers returns a copy of every answer computed so far
func (e *Engine) Answers() map[string]float64 {
	answers := make(map[string]float64, e.cache.Len())
	for _, id := range e.cache.Keys() {
		answers[id] = e.cache.items[id]
	}
	return answers
}

// CacheStats returns statistics of the per-record cache
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}
