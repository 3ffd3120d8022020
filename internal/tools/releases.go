package tools

// pinnedChecksums holds the sha256 of every release whose digest has been
// verified by hand. These are the only versions that install without
// further input; any other supported version needs a checksum from the
// command line or the config file.
var pinnedChecksums = map[Tool]map[string]string{
	Ktlint: {
		"1.2.1": "2e28cf46c27d38076bf63beeba0bdef6a845688d6c5dccd26505ce876094eb92",
	},
	Ktfmt: {
		"0.47": "af61161faacd74ac56374e0b43003dbe742ddc0d6a7e2c1fe43e15415e65ffbd",
	},
}

// PinnedChecksum returns the built-in digest for a tool version.
func PinnedChecksum(tool Tool, version string) (string, bool) {
	perTool, ok := pinnedChecksums[tool]
	if !ok {
		return "", false
	}
	sum, ok := perTool[version]
	return sum, ok
}

// PinnedVersions lists the versions of tool with a built-in digest.
func PinnedVersions(tool Tool) []string {
	perTool := pinnedChecksums[tool]
	versions := make([]string, 0, len(perTool))
	for v := range perTool {
		versions = append(versions, v)
	}
	sortVersions(versions)
	return versions
}
