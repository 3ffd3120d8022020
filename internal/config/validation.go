package config

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// ValidateStrict runs all strict validations against the config and returns
// structured results. knownTools and knownStyles are the accepted names
// (pass tools.KnownToolNames() and the format style names).
func (c Config) ValidateStrict(knownTools, knownStyles []string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateVersion()...)
	results = append(results, c.validateTimeout()...)
	results = append(results, c.validateToolNames(knownTools)...)
	results = append(results, c.validateURLs()...)
	results = append(results, c.validateChecksums()...)
	results = append(results, c.validateStyles(knownStyles)...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateVersion() []ValidationResult {
	if c.Version == 1 {
		return nil
	}
	return []ValidationResult{{
		Level:   "error",
		Message: fmt.Sprintf("unsupported config version %d (want 1)", c.Version),
	}}
}

func (c Config) validateTimeout() []ValidationResult {
	if c.DownloadTimeout > 0 {
		return nil
	}
	return []ValidationResult{{
		Level:   "error",
		Message: fmt.Sprintf("download_timeout must be positive, got %s", c.DownloadTimeout),
	}}
}

func (c Config) validateToolNames(known []string) []ValidationResult {
	allowed := make(map[string]bool, len(known))
	for _, name := range known {
		allowed[name] = true
	}
	var results []ValidationResult
	for _, name := range sortedKeys(c.Tools) {
		if !allowed[name] {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("unknown tool %q (known tools: %s)", name, strings.Join(known, ", ")),
			})
		}
	}
	return results
}

func (c Config) validateURLs() []ValidationResult {
	var results []ValidationResult
	for _, name := range sortedKeys(c.Tools) {
		url := c.Tools[name].URL
		if url == "" {
			continue
		}
		if !strings.Contains(url, "{version}") {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("tools.%s.url must contain {version}", name),
			})
		}
		if strings.HasPrefix(url, "http://") {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("tools.%s.url uses plain http; the checksum still guards the download", name),
			})
		}
	}
	return results
}

func (c Config) validateChecksums() []ValidationResult {
	var results []ValidationResult
	for _, name := range sortedKeys(c.Tools) {
		sums := c.Tools[name].Checksums
		versions := make([]string, 0, len(sums))
		for v := range sums {
			versions = append(versions, v)
		}
		sort.Strings(versions)
		for _, v := range versions {
			if !isSHA256(sums[v]) {
				results = append(results, ValidationResult{
					Level:   "error",
					Message: fmt.Sprintf("tools.%s.checksums[%q] is not a 64-character sha256 hex digest", name, v),
				})
			}
		}
	}
	return results
}

func (c Config) validateStyles(known []string) []ValidationResult {
	var results []ValidationResult
	for _, name := range sortedKeys(c.Tools) {
		style := c.Tools[name].Style
		if style == "" {
			continue
		}
		if name != "ktfmt" {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("tools.%s.style is ignored; only ktfmt has styles", name),
			})
			continue
		}
		if !contains(known, style) {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("tools.%s.style %q is not one of %s", name, style, strings.Join(known, ", ")),
			})
		}
	}
	return results
}

func isSHA256(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func sortedKeys(m map[string]ToolConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
