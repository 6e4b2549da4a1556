package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ncobase/scoutcore/formula"

	"github.com/spf13/cobra"
)

func newEvalCommand(opts *options) *cobra.Command {
	var (
		expr        string
		id          string
		valuesFile  string
		assignments []string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate one formula against a record",
		Example: `  scoutcore eval --formula "autoL4 * 7 + sum(l1, l2)" --set autoL4=2 --set l1=3 --set l2=1
  scoutcore eval -f "equals(endgame, \"deep\") * 12" --values record.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readValues(valuesFile, assignments)
			if err != nil {
				return err
			}

			engine := formula.NewEngine(formula.ConvertValuesDict(raw), opts.engineConfig())
			result, err := engine.RunFormula(expr, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "text":
				name := id
				if name == "" {
					name = "answer"
				}
				fmt.Fprintf(out, "%s = %g\n", name, result.Answer)
				fmt.Fprintf(out, "tokenize %s, parse %s, resolve %s\n",
					result.TokenizeTime, result.ParseTime, result.ResolveTime)
			default:
				return fmt.Errorf("unsupported output format: %s", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&expr, "formula", "f", "", "formula to evaluate")
	cmd.Flags().StringVar(&id, "id", "", "derived metric id of the formula")
	cmd.Flags().StringVarP(&valuesFile, "values", "v", "", "record values file (.json or .yaml)")
	cmd.Flags().StringArrayVarP(&assignments, "set", "s", nil, "set a record value (key=value), repeatable")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text or json)")
	_ = cmd.MarkFlagRequired("formula")
	return cmd
}
