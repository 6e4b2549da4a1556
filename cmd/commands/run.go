package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ncobase/scoutcore/config"
	"github.com/ncobase/scoutcore/log"
	"github.com/ncobase/scoutcore/recompute"
	"github.com/ncobase/scoutcore/schema"

	"github.com/spf13/cobra"
)

// runOutput is the JSON document printed by the run command
type runOutput struct {
	*recompute.Report
	SlowestMetrics []recompute.MetricTiming `json:"slowest,omitempty"`
}

func newRunCommand(opts *options) *cobra.Command {
	var (
		schemaFile  string
		recordsFile string
		slowest     int
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute derived metrics for records read from a file",
		Long: `Recompute derived metrics for records read from a file and print a JSON report.

With --watch the command keeps running and recomputes whenever the config
file changes, so formula and worker limits can be tuned against the same
records. Schema and records are read again on every run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && opts.cfg == nil {
				return errors.New("--watch requires --config")
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			runOnce := func() error {
				return runFiles(ctx, opts, out, schemaFile, recordsFile, slowest)
			}

			if err := runOnce(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			reloaded := make(chan struct{}, 1)
			err := config.Watch(func(*config.Config) {
				select {
				case reloaded <- struct{}{}:
				default:
				}
			}, func(err error) {
				log.Errorf(ctx, "config reload failed, keeping previous config: %v", err)
			})
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-reloaded:
					cfg, err := config.GetConfig()
					if err != nil {
						return err
					}
					opts.cfg = cfg
					log.Infof(ctx, "config reloaded, recomputing")
					if err := runOnce(); err != nil {
						log.Errorf(ctx, "recompute failed: %v", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&schemaFile, "schema", "", "schema file (.json or .yaml)")
	cmd.Flags().StringVar(&recordsFile, "records", "", "records file (.json or .yaml)")
	cmd.Flags().IntVar(&slowest, "slowest", 5, "number of slowest metrics to report")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompute when the config file changes")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

// runFiles recomputes the records of recordsFile and writes the report to out
func runFiles(ctx context.Context, opts *options, out io.Writer, schemaFile, recordsFile string, slowest int) error {
	s, err := schema.LoadFile(schemaFile)
	if err != nil {
		return err
	}
	records, err := readRecords(recordsFile)
	if err != nil {
		return err
	}

	plan := schema.NewPlan(s.Derived, opts.engineConfig())
	runner := recompute.NewRunner(plan, opts.workerConfig(), opts.engineConfig(), log.StandardLogger())

	report, err := runner.Run(ctx, records)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(runOutput{Report: report, SlowestMetrics: report.Slowest(slowest)}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
