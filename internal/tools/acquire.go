package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/natefinch/atomic"
	"golang.org/x/sync/singleflight"
)

const userAgent = "langfmt/1.0"

var (
	defaultClient = cleanhttp.DefaultPooledClient()
	acquireGroup  singleflight.Group
)

// AcquireOptions configures artifact resolution.
type AcquireOptions struct {
	// Checksum overrides every other expected digest.
	Checksum string
	// ConfiguredChecksum comes from the config file.
	ConfiguredChecksum string
	// URLTemplate replaces the built-in download URL; it must contain
	// {version}.
	URLTemplate string
	// CacheDir replaces CacheRoot.
	CacheDir string
	Client   *http.Client
	Logger   *slog.Logger
}

// Acquire returns a verified jar for tool at version, downloading it into the
// cache on first use. A cached jar is re-hashed and checked against the
// expected digest on every call. Bytes that fail verification are never
// written to the cache.
func Acquire(ctx context.Context, tool Tool, version string, opts AcquireOptions) (Artifact, error) {
	def, ok := Definition(tool)
	if !ok {
		return Artifact{}, fmt.Errorf("unknown tool: %s", tool)
	}
	if version == "" {
		version = def.DefaultVersion
	}
	artifact := Artifact{Tool: tool, Version: version}
	if err := validateVersion(version); err != nil {
		return artifact, fmt.Errorf("%s: %w", tool, err)
	}

	expected, source, err := ResolveChecksum(tool, version, opts.Checksum, opts.ConfiguredChecksum)
	if err != nil {
		return artifact, err
	}
	if _, err := normalizeChecksum(expected); err != nil {
		return artifact, &IntegrityError{Tool: tool, Version: version, Expected: expected, Err: err}
	}

	root, err := resolveRoot(opts.CacheDir)
	if err != nil {
		return artifact, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !def.Supports(version) {
		logger.Warn("version older than the oldest supported release", "tool", tool, "version", version, "minimum", def.MinimumVersion)
	}
	logger.Debug("resolved checksum", "tool", tool, "version", version, "source", string(source))

	key := strings.Join([]string{root, string(tool), version, strings.ToLower(expected)}, "\x00")
	v, err, _ := acquireGroup.Do(key, func() (any, error) {
		return acquire(ctx, def, version, expected, root, opts, logger)
	})
	if err != nil {
		return artifact, err
	}
	return v.(Artifact), nil
}

func acquire(ctx context.Context, def ToolDefinition, version, expected, root string, opts AcquireOptions, logger *slog.Logger) (Artifact, error) {
	path := artifactPath(root, def.Name, version)
	artifact := Artifact{Tool: def.Name, Version: version, Path: path}

	if _, err := os.Stat(path); err == nil {
		sum, err := DigestFile(path)
		if err != nil {
			return artifact, fmt.Errorf("read cached %s %s: %w", def.Name, version, err)
		}
		if err := VerifyDigest(sum, expected); err != nil {
			err = withArtifact(err, def.Name, version)
			return artifact, fmt.Errorf("%w (cached jar %s; remove it with `langfmt tools clean %s`)", err, path, def.Name)
		}
		logger.Debug("using cached jar", "tool", def.Name, "version", version, "path", path)
		artifact.Checksum = sum
		artifact.Verified = true
		return artifact, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return artifact, fmt.Errorf("stat cache: %w", err)
	}

	downloadURL := def.DownloadURL(opts.URLTemplate, version)
	client := opts.Client
	if client == nil {
		client = defaultClient
	}

	logger.Info("downloading formatter", "tool", def.Name, "version", version, "url", downloadURL)
	data, err := download(ctx, client, downloadURL)
	if err != nil {
		return artifact, &DownloadError{Tool: def.Name, Version: version, URL: downloadURL, Err: err}
	}

	sum := Digest(data)
	if err := VerifyDigest(sum, expected); err != nil {
		return artifact, withArtifact(err, def.Name, version)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return artifact, fmt.Errorf("prepare cache dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return artifact, fmt.Errorf("commit cache file: %w", err)
	}

	if err := recordArtifact(root, ManifestEntry{
		Tool:     def.Name,
		Version:  version,
		Path:     path,
		URL:      downloadURL,
		Checksum: sum,
	}); err != nil {
		logger.Warn("update manifest", "err", err)
	}

	artifact.Checksum = sum
	artifact.Verified = true
	artifact.Downloaded = true
	return artifact, nil
}

func download(ctx context.Context, client *http.Client, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func withArtifact(err error, tool Tool, version string) error {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		ie.Tool = tool
		ie.Version = version
	}
	return err
}
