package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project-level config looked up in the working directory.
const FileName = ".langfmt.yaml"

// Config captures per-repository formatter settings.
type Config struct {
	Version         int                   `yaml:"version"`
	DownloadTimeout time.Duration         `yaml:"download_timeout"`
	Tools           map[string]ToolConfig `yaml:"tools,omitempty"`
}

// ToolConfig overrides the built-in definition of one formatter.
type ToolConfig struct {
	// Version replaces the pinned default version.
	Version string `yaml:"version,omitempty"`
	// URL is a download template containing {version}.
	URL string `yaml:"url,omitempty"`
	// Style selects the ktfmt rule set.
	Style string `yaml:"style,omitempty"`
	// Checksums maps versions to sha256 hex digests.
	Checksums map[string]string `yaml:"checksums,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version:         1,
		DownloadTimeout: 5 * time.Minute,
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills fields the YAML omitted and normalizes tool names.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = defaults.DownloadTimeout
	}
	if len(c.Tools) == 0 {
		return
	}
	normalized := make(map[string]ToolConfig, len(c.Tools))
	for name, tool := range c.Tools {
		tool.Version = strings.TrimSpace(tool.Version)
		tool.URL = strings.TrimSpace(tool.URL)
		tool.Style = strings.ToLower(strings.TrimSpace(tool.Style))
		normalized[strings.ToLower(strings.TrimSpace(name))] = tool
	}
	c.Tools = normalized
}

// Tool returns the overrides for name, if any.
func (c Config) Tool(name string) ToolConfig {
	return c.Tools[strings.ToLower(name)]
}

// ToolVersion returns the configured default version for name.
func (c Config) ToolVersion(name string) string {
	return c.Tool(name).Version
}

// Checksum returns the configured digest for name at version.
func (c Config) Checksum(name, version string) string {
	return strings.TrimSpace(c.Tool(name).Checksums[version])
}

// URLTemplate returns the configured download template for name.
func (c Config) URLTemplate(name string) string {
	return c.Tool(name).URL
}

// Style returns the configured ktfmt style for name.
func (c Config) Style(name string) string {
	return c.Tool(name).Style
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
