package tools

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalVersion maps release tags like "0.47" or "1.2.1" onto semver.
func canonicalVersion(version string) string {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// compareVersions sorts unparsable versions before valid semver and falls
// back to lexical order between two unparsable versions.
func compareVersions(a, b string) int {
	ca, cb := canonicalVersion(a), canonicalVersion(b)
	va, vb := semver.IsValid(ca), semver.IsValid(cb)
	switch {
	case va && vb:
		return semver.Compare(ca, cb)
	case va:
		return 1
	case vb:
		return -1
	}
	return strings.Compare(a, b)
}

func sortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}
	cv := canonicalVersion(version)
	if !semver.IsValid(cv) {
		return false
	}
	return semver.Compare(cv, canonicalVersion(minimum)) >= 0
}
