package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"langfmt/internal/config"
	"langfmt/internal/format"
	"langfmt/internal/logx"
	"langfmt/internal/paths"
	"langfmt/internal/tools"
)

var (
	configPath string
	outputJSON bool
	verbose    bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "langfmt",
		Short:         "Pre-commit formatter hooks backed by verified tool jars",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default .langfmt.yaml or $LANGFMT_CONFIG)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newPrettyFormatKotlinCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// loadProject resolves paths and loads the config, failing on config errors
// and logging warnings.
func loadProject(logger *slog.Logger) (paths.ProjectPaths, config.Config, error) {
	pp, err := paths.Resolve(configPath)
	if err != nil {
		return paths.ProjectPaths{}, config.Config{}, err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return pp, config.Config{}, err
	}
	results := cfg.ValidateStrict(tools.KnownToolNames(), styleNames())
	for _, r := range results {
		if r.Level == "warning" {
			logger.Warn(r.Message, "config", pp.ConfigFile)
		}
	}
	if config.HasErrors(results) {
		return pp, cfg, fmt.Errorf("invalid config %s: %w", pp.ConfigFile, validationError(results))
	}
	return pp, cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	return logx.New(cmd.ErrOrStderr(), verbose)
}

func styleNames() []string {
	styles := format.Styles()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = string(s)
	}
	return names
}
