package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"langfmt/internal/tools"
	"langfmt/internal/tui"
)

var (
	installVersion     string
	installChecksum    string
	installAllVersions bool
	cleanVersion       string
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Manage cached formatter jars",
	}

	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsInstallCmd())
	cmd.AddCommand(newToolsCleanCmd())

	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached formatter jars",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	pp, _, err := loadProject(newLogger(cmd))
	if err != nil {
		return err
	}
	statuses, err := tools.List(pp.CacheDir)
	if err != nil {
		return err
	}
	return writeStatuses(cmd, statuses, "(no cached formatter jars)")
}

func newToolsInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [ktlint|ktfmt|all]",
		Short: "Download and verify formatter jars ahead of time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runToolsInstall,
	}

	cmd.Flags().StringVar(&installVersion, "version", "", "Version to install (default: configured or pinned version)")
	cmd.Flags().StringVar(&installChecksum, "checksum", "", "Expected sha256 of the jar")
	cmd.Flags().BoolVar(&installAllVersions, "all-versions", false, "Install every version with a built-in checksum")

	return cmd
}

type installTarget struct {
	tool    tools.Tool
	version string
}

func runToolsInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cmd)
	pp, cfg, err := loadProject(logger)
	if err != nil {
		return err
	}

	selected, err := selectTools(args)
	if err != nil {
		return err
	}
	if installAllVersions && installVersion != "" {
		return errors.New("--version and --all-versions are mutually exclusive")
	}
	if installChecksum != "" && !tools.ValidChecksum(installChecksum) {
		return fmt.Errorf("--checksum %q is not a sha256 hex digest", installChecksum)
	}

	var targets []installTarget
	for _, tool := range selected {
		def, _ := tools.Definition(tool)
		switch {
		case installAllVersions:
			for _, v := range tools.PinnedVersions(tool) {
				targets = append(targets, installTarget{tool: tool, version: v})
			}
		case installVersion != "":
			targets = append(targets, installTarget{tool: tool, version: installVersion})
		default:
			version := cfg.ToolVersion(string(tool))
			if version == "" {
				version = def.DefaultVersion
			}
			targets = append(targets, installTarget{tool: tool, version: version})
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout*time.Duration(max(1, len(targets))))
	defer cancel()

	var status *tui.FetchStatus
	if !outputJSON && tui.DetectMode(cmd.ErrOrStderr(), false, false) == tui.ModeTUI {
		status = tui.NewFetchStatus(cmd.ErrOrStderr(), len(targets))
		defer status.Stop()
	}

	var (
		statuses []tools.Status
		errs     []error
	)
	for _, target := range targets {
		name := string(target.tool)
		if status != nil {
			status.Begin(name, target.version)
		}
		artifact, err := tools.Acquire(ctx, target.tool, target.version, tools.AcquireOptions{
			Checksum:           installChecksum,
			ConfiguredChecksum: cfg.Checksum(name, target.version),
			URLTemplate:        cfg.URLTemplate(name),
			CacheDir:           pp.CacheDir,
			Logger:             logger,
		})
		st := tools.NewStatus(target.tool, target.version, artifact.Path)
		st.Checksum = artifact.Checksum
		if err != nil {
			st.Path = ""
			st.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s %s: %w", name, target.version, err))
		}
		statuses = append(statuses, st)
	}
	if status != nil {
		status.Stop()
	}

	if err := writeStatuses(cmd, statuses, "(nothing to install)"); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func newToolsCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [ktlint|ktfmt|all]",
		Short: "Remove cached formatter jars",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runToolsClean,
	}
	cmd.Flags().StringVar(&cleanVersion, "version", "", "Only remove this version")
	return cmd
}

func runToolsClean(cmd *cobra.Command, args []string) error {
	pp, _, err := loadProject(newLogger(cmd))
	if err != nil {
		return err
	}

	var tool tools.Tool
	if len(args) == 1 && !strings.EqualFold(args[0], "all") {
		tool, err = tools.ParseTool(args[0])
		if err != nil {
			return err
		}
	}

	removed, err := tools.Remove(pp.CacheDir, tool, cleanVersion)
	if werr := writeStatuses(cmd, removed, "(nothing to remove)"); werr != nil {
		return werr
	}
	return err
}

func selectTools(args []string) ([]tools.Tool, error) {
	if len(args) == 0 || strings.EqualFold(args[0], "all") {
		return tools.KnownTools(), nil
	}
	tool, err := tools.ParseTool(args[0])
	if err != nil {
		return nil, err
	}
	return []tools.Tool{tool}, nil
}

func writeStatuses(cmd *cobra.Command, statuses []tools.Status, empty string) error {
	out := cmd.OutOrStdout()
	if outputJSON {
		if statuses == nil {
			statuses = []tools.Status{}
		}
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	printStatusTable(out, statuses, empty)
	return nil
}

func printStatusTable(out io.Writer, statuses []tools.Status, empty string) {
	if len(statuses) == 0 {
		fmt.Fprintln(out, empty)
		return
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	fmt.Fprintln(out, bold.Render(fmt.Sprintf("%-8s %-9s %-7s %-9s %s", "TOOL", "VERSION", "PINNED", "CHECKSUM", "PATH")))
	for _, st := range statuses {
		pinned := "no"
		if st.Pinned {
			pinned = "yes"
		}
		checksum := st.Checksum
		if len(checksum) > 8 {
			checksum = checksum[:8]
		}
		version := st.Version
		if !st.Supported {
			version += "*"
		}
		fmt.Fprintf(out, "%-8s %-9s %-7s %-9s %s\n", st.Tool, version, pinned, tui.NonEmptyOrDash(checksum), tui.NonEmptyOrDash(st.Path))
		if st.Error != "" {
			fmt.Fprintf(out, "  %s %s\n", red.Render("error:"), st.Error)
		}
	}
}
