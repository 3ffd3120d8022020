package tools

import (
	"fmt"
	"sort"
	"strings"
)

const versionPlaceholder = "{version}"

var toolDefinitions = map[Tool]ToolDefinition{
	Ktlint: {
		Name:           Ktlint,
		DefaultVersion: "1.2.1",
		MinimumVersion: "0.41.0",
		URLTemplate:    "https://github.com/pinterest/ktlint/releases/download/{version}/ktlint",
	},
	Ktfmt: {
		Name:           Ktfmt,
		DefaultVersion: "0.47",
		MinimumVersion: "0.45",
		URLTemplate:    "https://repo1.maven.org/maven2/com/facebook/ktfmt/{version}/ktfmt-{version}-jar-with-dependencies.jar",
	},
}

// KnownTools returns the list of managed tool names.
func KnownTools() []Tool {
	names := make([]Tool, 0, len(toolDefinitions))
	for name := range toolDefinitions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// KnownToolNames is KnownTools as plain strings.
func KnownToolNames() []string {
	known := KnownTools()
	names := make([]string, len(known))
	for i, t := range known {
		names[i] = string(t)
	}
	return names
}

// Definition returns the tool definition for the provided name.
func Definition(name Tool) (ToolDefinition, bool) {
	def, ok := toolDefinitions[name]
	return def, ok
}

// ParseTool resolves a case-insensitive tool name.
func ParseTool(name string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := toolDefinitions[t]; !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t, nil
}

// DefaultVersion returns the pinned default version for tool.
func DefaultVersion(tool Tool) string {
	return toolDefinitions[tool].DefaultVersion
}

// DownloadURL substitutes version into template, falling back to the
// definition's template when template is empty.
func (d ToolDefinition) DownloadURL(template, version string) string {
	if strings.TrimSpace(template) == "" {
		template = d.URLTemplate
	}
	return strings.ReplaceAll(template, versionPlaceholder, version)
}

// Supports reports whether version is at or above the oldest release the
// hook works with. Being supported does not imply a built-in digest.
func (d ToolDefinition) Supports(version string) bool {
	return meetsMinimum(version, d.MinimumVersion)
}

// jarName is the cache file name for a tool version.
func jarName(tool Tool, version string) string {
	return fmt.Sprintf("%s-%s.jar", tool, version)
}

// validateVersion only guards the version's use as a path component; any
// other string is passed to the URL template unchanged.
func validateVersion(version string) error {
	switch {
	case strings.TrimSpace(version) == "":
		return fmt.Errorf("version is required")
	case version == "." || version == "..":
		return fmt.Errorf("invalid version %q", version)
	case strings.ContainsAny(version, `/\`):
		return fmt.Errorf("invalid version %q: contains a path separator", version)
	}
	return nil
}
