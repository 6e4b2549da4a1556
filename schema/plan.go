package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncobase/scoutcore/formula"

	"github.com/gammazero/toposort"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrCycle matches every CycleError
	ErrCycle = errors.New("dependency cycle")
	// ErrDuplicateID marks a metric whose id repeats an earlier one
	ErrDuplicateID = errors.New("duplicate derived metric id")
)

// CycleError reports derived metrics that reference each other. Cycle
// starts and ends with the same id.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Cycle, " -> ")
}

// Is reports whether target is ErrCycle
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// Step is one derived metric ready for evaluation
type Step struct {
	Metric  Metric
	Program *formula.Program
	Deps    []string // derived metric ids the formula references
}

// InvalidMetric is a derived metric left out of the plan
type InvalidMetric struct {
	ID      string
	Formula string
	Err     error
}

// Plan is the evaluation order of a schema's derived metrics. Metrics that
// fail to compile, repeat an earlier id or take part in a cycle are left
// out of Steps and reported in Invalid, in the order they were found.
type Plan struct {
	Steps   []*Step
	Invalid []InvalidMetric
}

// NewPlan compiles every formula and orders the metrics so each one comes
// after the derived metrics it references. A metric that depends on an
// invalid metric stays in the plan and fails per record when the missing
// answer is looked up.
func NewPlan(metrics []Metric, cfg *formula.Config) *Plan {
	p := &Plan{}

	steps := make(map[string]*Step, len(metrics))
	seen := make(map[string]bool, len(metrics))
	var ids []string
	for _, m := range metrics {
		if seen[m.ID] {
			p.invalidate(m, fmt.Errorf("%w %q", ErrDuplicateID, m.ID))
			continue
		}
		seen[m.ID] = true

		prog, err := formula.Compile(m.Formula, cfg)
		if err != nil {
			var fe *formula.Error
			if errors.As(err, &fe) && fe.MetricID == "" {
				fe.MetricID = m.ID
			}
			p.invalidate(m, err)
			continue
		}
		steps[m.ID] = &Step{Metric: m, Program: prog}
		ids = append(ids, m.ID)
	}

	var acyclic []string
	for _, id := range ids {
		self := false
		for _, name := range steps[id].Program.Variables() {
			if _, ok := steps[name]; ok {
				steps[id].Deps = append(steps[id].Deps, name)
			}
			self = self || name == id
		}
		if self {
			p.invalidate(steps[id].Metric, &CycleError{Cycle: []string{id, id}})
			continue
		}
		acyclic = append(acyclic, id)
	}
	ids = acyclic

	for len(ids) > 0 {
		order, err := sortIDs(ids, steps)
		if err == nil {
			for _, id := range order {
				p.Steps = append(p.Steps, steps[id])
			}
			break
		}

		cycle := findCycle(ids, steps)
		if cycle == nil {
			for _, id := range ids {
				p.invalidate(steps[id].Metric, fmt.Errorf("cannot order derived metrics: %w", err))
			}
			break
		}
		members := make(map[string]bool, len(cycle))
		for _, id := range cycle {
			members[id] = true
		}
		cerr := &CycleError{Cycle: cycle}
		var rest []string
		for _, id := range ids {
			if members[id] {
				p.invalidate(steps[id].Metric, cerr)
				continue
			}
			rest = append(rest, id)
		}
		ids = rest
	}

	return p
}

func (p *Plan) invalidate(m Metric, err error) {
	p.Invalid = append(p.Invalid, InvalidMetric{ID: m.ID, Formula: m.Formula, Err: err})
}

// Order returns the metric ids of Steps
func (p *Plan) Order() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.Metric.ID
	}
	return ids
}

// Err returns every invalid metric error, or nil when the whole schema is
// usable
func (p *Plan) Err() error {
	var result *multierror.Error
	for _, inv := range p.Invalid {
		result = multierror.Append(result, fmt.Errorf("%s: %w", inv.ID, inv.Err))
	}
	return result.ErrorOrNil()
}

// sortIDs orders ids topologically. A nil source edge adds every metric as
// a vertex so metrics without dependencies still appear. An order that
// misses a metric is reported as an error.
func sortIDs(ids []string, steps map[string]*Step) ([]string, error) {
	live := make(map[string]bool, len(ids))
	for _, id := range ids {
		live[id] = true
	}

	var edges []toposort.Edge
	for _, id := range ids {
		edges = append(edges, toposort.Edge{nil, id})
		for _, dep := range steps[id].Deps {
			if live[dep] {
				edges = append(edges, toposort.Edge{dep, id})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(ids))
	for _, node := range sorted {
		if id, ok := node.(string); ok && live[id] {
			order = append(order, id)
		}
	}
	if len(order) != len(ids) {
		return nil, fmt.Errorf("ordered %d of %d derived metrics", len(order), len(ids))
	}
	return order, nil
}

// findCycle returns the first dependency cycle among ids, or nil
func findCycle(ids []string, steps map[string]*Step) []string {
	const (
		unvisited = iota
		visiting
		done
	)

	live := make(map[string]bool, len(ids))
	for _, id := range ids {
		live[id] = true
	}
	state := make(map[string]int, len(ids))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range steps[id].Deps {
			if !live[dep] {
				continue
			}
			switch state[dep] {
			case visiting:
				for i, s := range stack {
					if s == dep {
						cycle := append([]string{}, stack[i:]...)
						return append(cycle, dep)
					}
				}
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range ids {
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
