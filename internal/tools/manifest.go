package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/natefinch/atomic"
)

const (
	manifestFileName = "manifest.json"
	cacheDirEnv      = "LANGFMT_CACHE_DIR"
)

// CacheRoot determines the per-user cache directory for formatter jars.
func CacheRoot() (string, error) {
	if override, ok := os.LookupEnv(cacheDirEnv); ok && override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", cacheDirEnv, err)
		}
		return abs, nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("detect user cache dir: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "langfmt"), nil
}

func resolveRoot(dir string) (string, error) {
	if dir == "" {
		return CacheRoot()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return abs, nil
}

func artifactPath(root string, tool Tool, version string) string {
	return filepath.Join(root, string(tool), version, jarName(tool, version))
}

func manifestKey(tool Tool, version string) string {
	return string(tool) + "@" + version
}

func loadManifest(root string) (Manifest, error) {
	contents, err := os.ReadFile(filepath.Join(root, manifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Entries: map[string]ManifestEntry{}}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]ManifestEntry{}
	}
	return manifest, nil
}

func saveManifest(root string, m Manifest) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("prepare manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(root, manifestFileName), bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

func recordArtifact(root string, entry ManifestEntry) error {
	manifest, err := loadManifest(root)
	if err != nil {
		return err
	}
	if entry.InstalledAt == "" {
		entry.InstalledAt = time.Now().UTC().Format(time.RFC3339)
	}
	manifest.Entries[manifestKey(entry.Tool, entry.Version)] = entry
	return saveManifest(root, manifest)
}

// List reports every artifact in the cache. Jars present on disk but missing
// from the manifest are included; manifest entries whose jar is gone are
// reported with an error.
func List(cacheDir string) ([]Status, error) {
	root, err := resolveRoot(cacheDir)
	if err != nil {
		return nil, err
	}
	manifest, err := loadManifest(root)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var statuses []Status

	for _, tool := range KnownTools() {
		dirs, err := os.ReadDir(filepath.Join(root, string(tool)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read cache: %w", err)
		}
		for _, d := range dirs {
			if !d.IsDir() {
				continue
			}
			version := d.Name()
			path := artifactPath(root, tool, version)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			key := manifestKey(tool, version)
			seen[key] = true
			st := NewStatus(tool, version, path)
			if entry, ok := manifest.Entries[key]; ok {
				st.URL = entry.URL
				st.Checksum = entry.Checksum
				st.InstalledAt = entry.InstalledAt
			}
			statuses = append(statuses, st)
		}
	}

	for key, entry := range manifest.Entries {
		if seen[key] {
			continue
		}
		st := NewStatus(entry.Tool, entry.Version, entry.Path)
		st.URL = entry.URL
		st.Checksum = entry.Checksum
		st.InstalledAt = entry.InstalledAt
		st.Error = "missing from cache"
		statuses = append(statuses, st)
	}

	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Tool != statuses[j].Tool {
			return statuses[i].Tool < statuses[j].Tool
		}
		return compareVersions(statuses[i].Version, statuses[j].Version) < 0
	})
	return statuses, nil
}

// NewStatus describes tool at version stored at path.
func NewStatus(tool Tool, version, path string) Status {
	st := Status{Tool: tool, Version: version, Path: path}
	if def, ok := Definition(tool); ok {
		st.Supported = def.Supports(version)
	}
	_, st.Pinned = PinnedChecksum(tool, version)
	return st
}

// Remove deletes cached artifacts. An empty tool removes every tool; an
// empty version removes every version of tool. The next Acquire downloads
// them again.
func Remove(cacheDir string, tool Tool, version string) ([]Status, error) {
	statuses, err := List(cacheDir)
	if err != nil {
		return nil, err
	}
	root, err := resolveRoot(cacheDir)
	if err != nil {
		return nil, err
	}
	manifest, err := loadManifest(root)
	if err != nil {
		return nil, err
	}

	var removed []Status
	for _, st := range statuses {
		if tool != "" && st.Tool != tool {
			continue
		}
		if version != "" && st.Version != version {
			continue
		}
		if err := validateVersion(st.Version); err != nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, string(st.Tool), st.Version)); err != nil {
			return removed, fmt.Errorf("remove %s %s: %w", st.Tool, st.Version, err)
		}
		delete(manifest.Entries, manifestKey(st.Tool, st.Version))
		removed = append(removed, st)
	}

	if len(removed) > 0 {
		if err := saveManifest(root, manifest); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
