package commands

import (
	"fmt"
	"strings"

	"github.com/ncobase/scoutcore/formula"
	"github.com/ncobase/scoutcore/schema"

	"github.com/spf13/cobra"
)

func newCheckCommand(opts *options) *cobra.Command {
	var schemaFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a schema and print its evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.LoadFile(schemaFile)
			if err != nil {
				return err
			}

			plan := schema.NewPlan(s.Derived, opts.engineConfig())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d %s: %d derived metrics\n", s.OrgKey, s.Year, s.Form, len(s.Derived))
			for i, step := range plan.Steps {
				line := fmt.Sprintf("%3d. %s = %s", i+1, step.Metric.ID, step.Program)
				if len(step.Deps) > 0 {
					line += fmt.Sprintf("  [after %s]", strings.Join(step.Deps, ", "))
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "functions: %s\n", strings.Join(formula.FunctionNames(), ", "))
			for _, inv := range plan.Invalid {
				fmt.Fprintf(out, "invalid %s: %v\n", inv.ID, inv.Err)
			}

			if len(plan.Invalid) > 0 {
				return fmt.Errorf("%d of %d derived metrics are invalid", len(plan.Invalid), len(s.Derived))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaFile, "schema", "", "schema file (.json or .yaml)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
