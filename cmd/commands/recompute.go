package commands

import (
	"errors"
	"fmt"

	"github.com/ncobase/scoutcore/data/mongodb"
	"github.com/ncobase/scoutcore/log"
	"github.com/ncobase/scoutcore/recompute"
	"github.com/ncobase/scoutcore/schema"

	"github.com/spf13/cobra"
)

func newRecomputeCommand(opts *options) *cobra.Command {
	var (
		filter mongodb.RecordFilter
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute derived metrics stored in MongoDB",
		Long: `Load an organization's form schema and scouting records from MongoDB,
recompute every derived metric and write the answers back to the records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg == nil {
				return errors.New("recompute requires --config")
			}
			if filter.Form != schema.FormMatch && filter.Form != schema.FormPit {
				return fmt.Errorf("unsupported form: %s", filter.Form)
			}

			ctx := cmd.Context()
			ctx, _ = log.EnsureTraceID(ctx)

			repo, cleanup, err := initRepository(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := repo.LoadSchema(ctx, filter.OrgKey, filter.Year, filter.Form)
			if err != nil {
				return err
			}
			records, err := repo.FindRecords(ctx, filter)
			if err != nil {
				return err
			}

			plan := schema.NewPlan(s.Derived, opts.engineConfig())
			runner := recompute.NewRunner(plan, opts.workerConfig(), opts.engineConfig(), log.StandardLogger())
			report, err := runner.Run(ctx, records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d records, %d with failures, %s\n", report.Records, report.Failed, report.Elapsed)
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written")
				return nil
			}

			modified, err := repo.SaveOutcomes(ctx, filter.Form, report.Outcomes)
			fmt.Fprintf(out, "%d records updated\n", modified)
			return err
		},
	}

	cmd.Flags().StringVar(&filter.OrgKey, "org", "", "organization key")
	cmd.Flags().IntVar(&filter.Year, "year", 0, "season year")
	cmd.Flags().StringVar(&filter.EventKey, "event", "", "only records of this event")
	cmd.Flags().StringVar(&filter.TeamKey, "team", "", "only records of this team")
	cmd.Flags().StringVar(&filter.Form, "form", schema.FormMatch, "form type (matchscouting or pitscouting)")
	cmd.Flags().Int64Var(&filter.Limit, "limit", 0, "maximum number of records, 0 for all")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "recompute without writing back")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}
