// Package recompute evaluates a schema's derived metrics over batches of
// scouting records. Records are independent, so a batch is spread over a
// worker pool; within a record metrics run in plan order on one engine.
package recompute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/scoutcore/concurrency/worker"
	"github.com/ncobase/scoutcore/formula"
	"github.com/ncobase/scoutcore/log"
	"github.com/ncobase/scoutcore/schema"

	"github.com/sirupsen/logrus"
)

// Runner evaluates one plan against many records
type Runner struct {
	plan      *schema.Plan
	poolCfg   *worker.Config
	engineCfg *formula.Config
	logger    *log.Logger
}

// NewRunner creates a runner. Nil configurations use defaults and a nil
// logger uses the standard logger.
func NewRunner(plan *schema.Plan, poolCfg *worker.Config, engineCfg *formula.Config, logger *log.Logger) *Runner {
	if poolCfg == nil {
		poolCfg = worker.DefaultConfig()
	}
	if engineCfg == nil {
		engineCfg = formula.DefaultConfig()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Runner{
		plan:      plan,
		poolCfg:   poolCfg,
		engineCfg: engineCfg,
		logger:    logger,
	}
}

// Evaluate computes every derived metric of the plan for one record. A
// failing metric is recorded and the remaining metrics still run.
func (r *Runner) Evaluate(ctx context.Context, rec *Record) *Outcome {
	start := time.Now()
	out := &Outcome{
		RecordID: rec.ID,
		TeamKey:  rec.TeamKey,
		MatchKey: rec.MatchKey,
		Answers:  make(map[string]float64, len(r.plan.Steps)),
		Timings:  make(map[string]time.Duration, len(r.plan.Steps)),
	}

	for _, inv := range r.plan.Invalid {
		out.Failures = append(out.Failures, Failure{
			RecordID: rec.ID,
			MetricID: inv.ID,
			Formula:  inv.Formula,
			Kind:     kindOf(inv.Err),
			Reason:   inv.Err.Error(),
		})
	}

	engine := formula.NewEngine(formula.ConvertValuesDict(rec.Data), r.engineCfg)
	for i, step := range r.plan.Steps {
		if err := ctx.Err(); err != nil {
			for _, rest := range r.plan.Steps[i:] {
				out.Failures = append(out.Failures, Failure{
					RecordID: rec.ID,
					MetricID: rest.Metric.ID,
					Formula:  rest.Metric.Formula,
					Kind:     KindCancelled,
					Reason:   err.Error(),
				})
			}
			break
		}

		res, err := engine.Run(step.Program, step.Metric.ID)
		if err != nil {
			f := Failure{
				RecordID: rec.ID,
				MetricID: step.Metric.ID,
				Formula:  step.Metric.Formula,
				Kind:     kindOf(err),
				Reason:   err.Error(),
			}
			out.Failures = append(out.Failures, f)
			r.logFailure(ctx, f)
			continue
		}
		out.Answers[step.Metric.ID] = res.Answer
		out.Timings[step.Metric.ID] = res.ResolveTime
	}

	out.Elapsed = time.Since(start)
	return out
}

// Run evaluates records on a worker pool. The report keeps input order.
// When ctx ends early, records not yet evaluated get a cancelled outcome
// and the context error is returned with the partial report.
func (r *Runner) Run(ctx context.Context, records []*Record) (*Report, error) {
	ctx, _ = log.EnsureTraceID(ctx)
	start := time.Now()

	for _, inv := range r.plan.Invalid {
		r.logger.EntryWithFields(ctx, logrus.Fields{
			"metric_id": inv.ID,
			"formula":   inv.Formula,
			"kind":      kindOf(inv.Err),
			"reason":    inv.Err.Error(),
		}).Warn("derived metric skipped for every record")
	}

	pool, cleanup, err := worker.ProvidePool(r.poolCfg, worker.WithErrorHandler(func(err error) {
		r.logger.Errorf(ctx, "recompute task failed: %v", err)
	}))
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outcomes := make([]*Outcome, len(records))
	var submitErr error
	for i, rec := range records {
		err := pool.Submit(ctx, func(taskCtx context.Context) (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = fmt.Errorf("record %s: panic: %v", rec.ID, v)
					outcomes[i] = r.failed(rec, KindPanic, err)
				}
			}()
			outcomes[i] = r.Evaluate(taskCtx, rec)
			return nil
		})
		if err != nil {
			submitErr = err
			break
		}
	}
	pool.Stop(ctx)
	poolMetrics := pool.GetMetrics()

	report := &Report{Outcomes: outcomes, Records: len(records)}
	for i, o := range outcomes {
		if o == nil {
			cause := ctx.Err()
			if cause == nil {
				cause = context.Canceled
			}
			outcomes[i] = r.failed(records[i], KindCancelled, cause)
			o = outcomes[i]
		}
		if len(o.Failures) > 0 {
			report.Failed++
		}
	}
	report.Elapsed = time.Since(start)

	r.logger.EntryWithFields(ctx, logrus.Fields{
		"records":         report.Records,
		"failed":          report.Failed,
		"metrics":         len(r.plan.Steps),
		"elapsed":         report.Elapsed.String(),
		"tasks_completed": poolMetrics["completed_tasks"],
		"tasks_failed":    poolMetrics["failed_tasks"],
	}).Info("recompute finished")

	if submitErr != nil {
		return report, submitErr
	}
	return report, ctx.Err()
}

// failed builds the outcome of a record whose evaluation never completed.
// Every planned metric fails with kind.
func (r *Runner) failed(rec *Record, kind formula.Kind, cause error) *Outcome {
	out := &Outcome{
		RecordID: rec.ID,
		TeamKey:  rec.TeamKey,
		MatchKey: rec.MatchKey,
		Answers:  map[string]float64{},
		Timings:  map[string]time.Duration{},
	}
	for _, step := range r.plan.Steps {
		out.Failures = append(out.Failures, Failure{
			RecordID: rec.ID,
			MetricID: step.Metric.ID,
			Formula:  step.Metric.Formula,
			Kind:     kind,
			Reason:   cause.Error(),
		})
	}
	return out
}

func (r *Runner) logFailure(ctx context.Context, f Failure) {
	r.logger.EntryWithFields(ctx, logrus.Fields{
		"record_id": f.RecordID,
		"metric_id": f.MetricID,
		"formula":   f.Formula,
		"kind":      f.Kind,
		"reason":    f.Reason,
	}).Warn("derived metric failed")
}

func kindOf(err error) formula.Kind {
	if kind := formula.KindOf(err); kind != "" {
		return kind
	}
	switch {
	case errors.Is(err, schema.ErrCycle):
		return KindCycle
	case errors.Is(err, schema.ErrDuplicateID):
		return KindDuplicate
	}
	return KindInvalid
}
