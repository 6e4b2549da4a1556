package recompute

import (
	"fmt"
	"sort"
	"time"

	"github.com/ncobase/scoutcore/formula"

	"github.com/hashicorp/go-multierror"
)

// Failure kinds that do not come from the formula engine
const (
	KindCycle     formula.Kind = "cycle"
	KindDuplicate formula.Kind = "duplicate"
	KindCancelled formula.Kind = "cancelled"
	KindInvalid   formula.Kind = "invalid"
	KindPanic     formula.Kind = "panic"
)

// Record is one raw scouting submission
type Record struct {
	ID       string         `json:"id" yaml:"id"`
	TeamKey  string         `json:"team_key,omitempty" yaml:"team_key,omitempty"`
	MatchKey string         `json:"match_key,omitempty" yaml:"match_key,omitempty"`
	Data     map[string]any `json:"data" yaml:"data"`
}

// Failure is one derived metric that could not be computed for a record
type Failure struct {
	RecordID string       `json:"record_id"`
	MetricID string       `json:"metric_id"`
	Formula  string       `json:"formula"`
	Kind     formula.Kind `json:"kind"`
	Reason   string       `json:"reason"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("record %s: %s (%s): %s", f.RecordID, f.MetricID, f.Kind, f.Reason)
}

// Outcome holds the derived metrics computed for one record
type Outcome struct {
	RecordID string                   `json:"record_id"`
	TeamKey  string                   `json:"team_key,omitempty"`
	MatchKey string                   `json:"match_key,omitempty"`
	Answers  map[string]float64       `json:"answers"`
	Failures []Failure                `json:"failures,omitempty"`
	Timings  map[string]time.Duration `json:"-"`
	Elapsed  time.Duration            `json:"elapsed"`
}

// MetricTiming is the resolve time of one derived metric across a batch
type MetricTiming struct {
	MetricID string        `json:"metric_id"`
	Count    int           `json:"count"`
	Total    time.Duration `json:"total"`
	Max      time.Duration `json:"max"`
}

// Report is the result of a batch recompute. Outcomes keep the order of
// the input records.
type Report struct {
	Outcomes []*Outcome    `json:"outcomes"`
	Records  int           `json:"records"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Failures returns every failure of the batch in record order
func (r *Report) Failures() []Failure {
	var failures []Failure
	for _, o := range r.Outcomes {
		failures = append(failures, o.Failures...)
	}
	return failures
}

// Err returns all failures as one error, or nil
func (r *Report) Err() error {
	var result *multierror.Error
	for _, f := range r.Failures() {
		result = multierror.Append(result, f)
	}
	return result.ErrorOrNil()
}

// Slowest returns the n metrics with the largest total resolve time
func (r *Report) Slowest(n int) []MetricTiming {
	byID := make(map[string]*MetricTiming)
	for _, o := range r.Outcomes {
		for id, d := range o.Timings {
			t, ok := byID[id]
			if !ok {
				t = &MetricTiming{MetricID: id}
				byID[id] = t
			}
			t.Count++
			t.Total += d
			if d > t.Max {
				t.Max = d
			}
		}
	}

	timings := make([]MetricTiming, 0, len(byID))
	for _, t := range byID {
		timings = append(timings, *t)
	}
	sort.Slice(timings, func(i, j int) bool {
		if timings[i].Total != timings[j].Total {
			return timings[i].Total > timings[j].Total
		}
		return timings[i].MetricID < timings[j].MetricID
	})

	if n >= 0 && n < len(timings) {
		timings = timings[:n]
	}
	return timings
}
