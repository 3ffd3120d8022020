package tools

// Tool names a formatter backend distributed as a jar.
type Tool string

const (
	Ktlint Tool = "ktlint"
	Ktfmt  Tool = "ktfmt"
)

func (t Tool) String() string { return string(t) }

// Artifact is a formatter jar resolved from the cache.
type Artifact struct {
	Tool     Tool   `json:"tool"`
	Version  string `json:"version"`
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Verified bool   `json:"verified"`
	// Downloaded is set when this call fetched the jar from the network.
	Downloaded bool `json:"downloaded,omitempty"`
}

// Status captures a cached artifact as reported by `tools list`.
type Status struct {
	Tool        Tool   `json:"tool"`
	Version     string `json:"version"`
	Path        string `json:"path,omitempty"`
	URL         string `json:"url,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	InstalledAt string `json:"installed_at,omitempty"`
	Pinned      bool   `json:"pinned"`
	Supported   bool   `json:"supported"`
	Error       string `json:"error,omitempty"`
}

// ToolDefinition contains metadata required to fetch a tool.
type ToolDefinition struct {
	Name           Tool
	DefaultVersion string
	MinimumVersion string
	// URLTemplate contains a {version} placeholder.
	URLTemplate string
}

// ManifestEntry records a verified artifact in the cache manifest.
type ManifestEntry struct {
	Tool        Tool   `json:"tool"`
	Version     string `json:"version"`
	Path        string `json:"path"`
	URL         string `json:"url"`
	Checksum    string `json:"checksum"`
	InstalledAt string `json:"installed_at,omitempty"`
}

// Manifest wraps persisted entries keyed by tool@version.
type Manifest struct {
	Entries map[string]ManifestEntry `json:"entries"`
}
