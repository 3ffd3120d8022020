package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"langfmt/internal/config"
	"langfmt/internal/tools"
)

// ConfigEnv names an explicit config file when --config is not given.
const ConfigEnv = "LANGFMT_CONFIG"

// ProjectPaths captures the locations a hook invocation reads.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	CacheDir   string
}

// Resolve anchors paths at the working directory, which pre-commit sets to
// the repository root. The config file comes from configFlag, then
// $LANGFMT_CONFIG, then .langfmt.yaml in the root.
func Resolve(configFlag string) (ProjectPaths, error) {
	root, err := os.Getwd()
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}
	cacheDir, err := tools.CacheRoot()
	if err != nil {
		return ProjectPaths{}, err
	}
	return newProjectPaths(root, configFlag, os.Getenv(ConfigEnv), cacheDir), nil
}

func newProjectPaths(root, configFlag, configEnv, cacheDir string) ProjectPaths {
	configFile := filepath.Join(root, config.FileName)
	switch {
	case strings.TrimSpace(configFlag) != "":
		configFile = resolveProjectPath(root, strings.TrimSpace(configFlag))
	case strings.TrimSpace(configEnv) != "":
		configFile = resolveProjectPath(root, strings.TrimSpace(configEnv))
	}
	return ProjectPaths{
		Root:       root,
		ConfigFile: configFile,
		CacheDir:   cacheDir,
	}
}

func resolveProjectPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
