package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"langfmt/internal/config"
	"langfmt/internal/format"
	"langfmt/internal/hook"
	"langfmt/internal/logx"
	"langfmt/internal/tools"
	"langfmt/internal/tui"
)

var (
	kotlinAutofix       bool
	kotlinUseKtfmt      bool
	kotlinKtlintVersion string
	kotlinKtfmtVersion  string
	kotlinStyle         format.Style
	kotlinChecksum      string
	kotlinNoProgress    bool

	// formatRunner and javaPath replace the JVM in tests.
	formatRunner format.Runner
	javaPath     string
)

func newPrettyFormatKotlinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pretty-format-kotlin [flags] FILE...",
		Short: "Check or fix Kotlin formatting with ktlint or ktfmt",
		Long: "Downloads the selected formatter jar into the user cache, verifies its sha256\n" +
			"checksum, and runs it against each file. Exits 1 if any file is not formatted,\n" +
			"cannot be parsed, or the formatter cannot be obtained or trusted.",
		RunE: runPrettyFormatKotlin,
	}

	flags := cmd.Flags()
	flags.BoolVar(&kotlinAutofix, "autofix", false, "Rewrite files that are not formatted")
	flags.BoolVar(&kotlinUseKtfmt, "ktfmt", false, "Use ktfmt instead of ktlint")
	flags.StringVar(&kotlinKtlintVersion, "ktlint-version", "", "ktlint version (default "+tools.DefaultVersion(tools.Ktlint)+")")
	flags.StringVar(&kotlinKtfmtVersion, "ktfmt-version", "", "ktfmt version (default "+tools.DefaultVersion(tools.Ktfmt)+")")
	flags.Var(&kotlinStyle, "ktfmt-style", "ktfmt style: default, google or kotlinlang")
	flags.StringVar(&kotlinChecksum, "formatter-jar-checksum", "", "Expected sha256 of the formatter jar, overriding built-in and configured values")
	flags.BoolVar(&kotlinNoProgress, "no-progress", false, "Disable the interactive progress table")

	return cmd
}

func runPrettyFormatKotlin(cmd *cobra.Command, files []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if kotlinChecksum != "" && !tools.ValidChecksum(kotlinChecksum) {
		return fmt.Errorf("--formatter-jar-checksum %q is not a sha256 hex digest", kotlinChecksum)
	}

	logger := newLogger(cmd)
	pp, cfg, err := loadProject(logger)
	if err != nil {
		return err
	}

	spec, err := kotlinSpec(cmd, cfg)
	if err != nil {
		return err
	}
	if spec.Tool == tools.Ktlint && cmd.Flags().Changed("ktfmt-style") {
		logger.Warn("--ktfmt-style has no effect without --ktfmt")
	}

	opts := hook.Options{
		Spec:               spec,
		Files:              files,
		Autofix:            kotlinAutofix,
		Checksum:           kotlinChecksum,
		ConfiguredChecksum: cfg.Checksum(string(spec.Tool), spec.Version),
		URLTemplate:        cfg.URLTemplate(string(spec.Tool)),
		CacheDir:           pp.CacheDir,
		DownloadTimeout:    cfg.DownloadTimeout,
		Java:               javaPath,
		Runner:             formatRunner,
		Logger:             logger,
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, kotlinNoProgress, outputJSON)

	var report hook.Report
	switch mode {
	case tui.ModeTUI:
		report, err = runHookWithProgress(ctx, out, cmd.ErrOrStderr(), opts)
		if err != nil {
			return err
		}
		printHookSummary(out, report)
	case tui.ModeJSON:
		report = hook.Run(ctx, opts)
		if err := writeHookJSON(out, report); err != nil {
			return err
		}
	default:
		report = hook.Run(ctx, opts)
		printHookReport(out, report)
	}

	return hookError(report)
}

// kotlinSpec picks the formatter from flags, then config, then built-in
// defaults.
func kotlinSpec(cmd *cobra.Command, cfg config.Config) (format.Spec, error) {
	spec := format.Spec{Tool: tools.Ktlint, Version: kotlinKtlintVersion}
	if kotlinUseKtfmt {
		spec = format.Spec{Tool: tools.Ktfmt, Version: kotlinKtfmtVersion, Style: kotlinStyle}
		if !cmd.Flags().Changed("ktfmt-style") {
			style, err := format.ParseStyle(cfg.Style(string(tools.Ktfmt)))
			if err != nil {
				return spec, err
			}
			spec.Style = style
		}
		if spec.Style == "" {
			spec.Style = format.StyleDefault
		}
	}
	if spec.Version == "" {
		spec.Version = cfg.ToolVersion(string(spec.Tool))
	}
	if spec.Version == "" {
		spec.Version = tools.DefaultVersion(spec.Tool)
	}
	return spec, nil
}

// runHookWithProgress drives the bubbletea table. Quitting the table cancels
// the run and waits for the file in flight to finish. Log records are held
// back and written to errOut once the table has exited.
func runHookWithProgress(ctx context.Context, out, errOut io.Writer, opts hook.Options) (hook.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger, flushLogs := logx.Deferred(errOut, verbose)
	defer flushLogs()
	opts.Logger = logger
	finished := make(chan hook.Report, 1)

	err := tui.RunHook(out, tui.NewHookModel(opts.Spec, opts.Files), func(r hook.Reporter) {
		opts.Reporter = r
		finished <- hook.Run(ctx, opts)
	})
	cancel()
	report := <-finished
	if errors.Is(err, tui.ErrInterrupted) {
		return report, nil
	}
	return report, err
}

func writeHookJSON(out io.Writer, report hook.Report) error {
	if report.Files == nil {
		report.Files = []hook.FileReport{}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// printHookReport lists files that need attention, then the summary line.
// Conforming files are not listed; pre-commit only shows output on failure.
func printHookReport(out io.Writer, report hook.Report) {
	faint := lipgloss.NewStyle().Faint(true).Inline(true)
	for _, f := range report.Files {
		if f.Outcome == hook.OutcomeConforms {
			continue
		}
		status := tui.StatusStyle(string(f.Outcome)).Inline(true).Render(fmt.Sprintf("%-11s", f.Outcome))
		fmt.Fprintf(out, "%s %s\n", status, f.Path)
		if f.Error != "" && report.Err == nil {
			fmt.Fprintf(out, "            %s\n", faint.Render(f.Error))
		}
		for _, issue := range f.Issues {
			fmt.Fprintf(out, "            %s\n", faint.Render(issue.String()))
		}
	}
	printHookSummary(out, report)
}

func printHookSummary(out io.Writer, report hook.Report) {
	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	if report.Err != nil {
		fmt.Fprintf(out, "%s %s: %s\n", red.Render("FAILED"), bold.Render(report.Formatter), report.Err)
		return
	}
	counts := report.Counts()
	line := fmt.Sprintf("%d files: %d conform, %d fixed, %d unformatted, %d invalid, %d errors",
		len(report.Files),
		counts[hook.OutcomeConforms],
		counts[hook.OutcomeFixed],
		counts[hook.OutcomeDirty],
		counts[hook.OutcomeInvalid],
		counts[hook.OutcomeError],
	)
	label := green.Render("OK")
	if report.ExitCode() != 0 {
		label = red.Render("FAILED")
	}
	fmt.Fprintf(out, "%s %s  %s\n", label, bold.Render(report.Formatter), line)
}

func hookError(report hook.Report) error {
	if report.Err != nil {
		return report.Err
	}
	if report.ExitCode() == 0 {
		return nil
	}
	failed := 0
	for _, f := range report.Files {
		if !f.Outcome.OK() {
			failed++
		}
	}
	return fmt.Errorf("%d of %d files failed %s", failed, len(report.Files), report.Formatter)
}
