package tools

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const digestHexLen = sha256.Size * 2

var errMalformedChecksum = errors.New("malformed checksum")

// ChecksumSource records where an expected digest came from.
type ChecksumSource string

const (
	ChecksumOverride ChecksumSource = "override"
	ChecksumConfig   ChecksumSource = "config"
	ChecksumPinned   ChecksumSource = "pinned"
)

// Digest returns the hex sha256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestFile streams path through sha256.
func DigestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks data against expected. The comparison is case-insensitive
// and requires a full-length digest.
func Verify(data []byte, expected string) error {
	return VerifyDigest(Digest(data), expected)
}

// VerifyDigest compares a hex digest that was already computed.
func VerifyDigest(actual, expected string) error {
	want, err := normalizeChecksum(expected)
	if err != nil {
		return &IntegrityError{Expected: expected, Err: err}
	}
	got := strings.ToLower(actual)
	if len(got) != len(want) || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return &IntegrityError{Expected: want, Actual: got}
	}
	return nil
}

// ValidChecksum reports whether s is a full sha256 hex digest.
func ValidChecksum(s string) bool {
	_, err := normalizeChecksum(s)
	return err == nil
}

func normalizeChecksum(s string) (string, error) {
	sum := strings.ToLower(strings.TrimSpace(s))
	if len(sum) != digestHexLen {
		return "", fmt.Errorf("%w: want %d hex characters, got %d", errMalformedChecksum, digestHexLen, len(sum))
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", errMalformedChecksum, s)
	}
	return sum, nil
}

// ResolveChecksum picks the expected digest for a tool version: an explicit
// override first, then a configured value, then the pinned table.
func ResolveChecksum(tool Tool, version, override, configured string) (string, ChecksumSource, error) {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override), ChecksumOverride, nil
	}
	if strings.TrimSpace(configured) != "" {
		return strings.TrimSpace(configured), ChecksumConfig, nil
	}
	if sum, ok := PinnedChecksum(tool, version); ok {
		return sum, ChecksumPinned, nil
	}
	return "", "", fmt.Errorf("%s %s: %w; pass --formatter-jar-checksum or add it to the config file", tool, version, ErrNoChecksum)
}
