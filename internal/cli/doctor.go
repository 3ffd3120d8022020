package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"langfmt/internal/config"
	"langfmt/internal/format"
	"langfmt/internal/paths"
	"langfmt/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check java, config, and cached jars",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(configPath)
	if err != nil {
		return err
	}

	var checks []healthCheck
	checks = append(checks, checkJava())

	cfg, cfgErr := config.Load(pp.ConfigFile)
	checks = append(checks, checkConfig(pp.ConfigFile, cfg, cfgErr))

	statuses, listErr := tools.List(pp.CacheDir)
	checks = append(checks, checkCache(pp, statuses, listErr))
	if listErr == nil {
		checks = append(checks, checkCachedDigests(cfg, statuses))
	}

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkJava() healthCheck {
	path := javaPath
	if path == "" {
		var err error
		path, err = format.LocateJava()
		if err != nil {
			return healthCheck{Name: "Java", Status: "error", Summary: err.Error()}
		}
	}
	return healthCheck{Name: "Java", Status: "ok", Summary: path}
}

func checkConfig(file string, cfg config.Config, loadErr error) healthCheck {
	if loadErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: loadErr.Error()}
	}
	exists, err := paths.FileExists(file)
	if err != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{Name: "Config", Status: "ok", Summary: "no config file, using built-in defaults"}
	}
	results := cfg.ValidateStrict(tools.KnownToolNames(), styleNames())
	if config.HasErrors(results) {
		return healthCheck{Name: "Config", Status: "error", Summary: validationError(results).Error()}
	}
	if len(results) > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%d warnings", len(results))}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: "valid"}
}

func checkCache(pp paths.ProjectPaths, statuses []tools.Status, listErr error) healthCheck {
	if listErr != nil {
		return healthCheck{Name: "Cache", Status: "error", Summary: listErr.Error()}
	}
	exists, err := paths.DirExists(pp.CacheDir)
	if err != nil {
		return healthCheck{Name: "Cache", Status: "error", Summary: err.Error()}
	}
	if !exists {
		return healthCheck{Name: "Cache", Status: "ok", Summary: fmt.Sprintf("%s not created yet", pp.CacheDir)}
	}
	return healthCheck{Name: "Cache", Status: "ok", Summary: fmt.Sprintf("%d jars in %s", len(statuses), pp.CacheDir)}
}

// checkCachedDigests re-hashes every cached jar against the digest the hook
// would expect for it.
func checkCachedDigests(cfg config.Config, statuses []tools.Status) healthCheck {
	var bad, unknown int
	for _, st := range statuses {
		if st.Error != "" {
			bad++
			continue
		}
		expected, _, err := tools.ResolveChecksum(st.Tool, st.Version, "", cfg.Checksum(string(st.Tool), st.Version))
		if err != nil {
			unknown++
			continue
		}
		actual, err := tools.DigestFile(st.Path)
		if err != nil || tools.VerifyDigest(actual, expected) != nil {
			bad++
		}
	}
	switch {
	case bad > 0:
		return healthCheck{Name: "Digests", Status: "error", Summary: fmt.Sprintf("%d cached jars fail verification; run `langfmt tools clean`", bad)}
	case unknown > 0:
		return healthCheck{Name: "Digests", Status: "warning", Summary: fmt.Sprintf("%d cached jars have no expected checksum", unknown)}
	default:
		return healthCheck{Name: "Digests", Status: "ok", Summary: fmt.Sprintf("%d verified", len(statuses))}
	}
}

func writeDoctorResult(cmd *cobra.Command, root string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("LANGFMT HEALTH:")+" "+root)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-10s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}
