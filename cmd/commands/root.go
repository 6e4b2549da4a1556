package commands

import (
	"fmt"

	"github.com/ncobase/scoutcore/concurrency/worker"
	"github.com/ncobase/scoutcore/config"
	"github.com/ncobase/scoutcore/formula"
	"github.com/ncobase/scoutcore/log"
	"github.com/ncobase/scoutcore/version"

	"github.com/spf13/cobra"
)

// options is the state shared by every subcommand
type options struct {
	configFile string
	cfg        *config.Config
	cleanup    func()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "scoutcore",
		Short:         "Evaluate and recompute derived scouting metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.cleanup != nil {
				opts.cleanup()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path")

	// Add subcommands
	rootCmd.AddCommand(
		newEvalCommand(opts),
		newCheckCommand(opts),
		newRunCommand(opts),
		newRecomputeCommand(opts),
		NewVersionCommand(),
	)

	return rootCmd
}

// load reads the config file, when one is given, and sets up logging
func (o *options) load() error {
	log.SetVersion(version.GetVersionInfo().Version)
	if o.configFile == "" {
		return nil
	}

	cfg, err := config.Init(o.configFile)
	if err != nil {
		return err
	}
	cleanup, err := log.Init(cfg.Logger)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.cleanup = cleanup
	return nil
}

func (o *options) engineConfig() *formula.Config {
	if o.cfg == nil || o.cfg.Formula == nil {
		return nil
	}
	return o.cfg.Formula.EngineConfig()
}

func (o *options) workerConfig() *worker.Config {
	if o.cfg == nil || o.cfg.Recompute == nil {
		return nil
	}
	return o.cfg.Recompute.WorkerConfig()
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetVersionInfo()
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return nil
			}
			data, err := info.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
