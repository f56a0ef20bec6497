// Package buildinfo formats the version string cherub's CLI prints for
// --version, factored out of cmd/cherub/main.go so
// the binary's entrypoint carries only cobra/ExitError control flow, not
// string-joining logic. Grounded on cmd/agentsh/main.go's versionString,
// which inlines this same dedup directly in main().
package buildinfo

import "strings"

// Version joins a version string with a commit hash, skipping the commit
// when it is empty, "unknown" (case-insensitively), or already present in
// version (e.g. git-describe output that embeds the short hash).
func Version(version, commit string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "dev"
	}
	c := strings.TrimSpace(commit)
	if c == "" || strings.EqualFold(c, "unknown") {
		return v
	}
	if strings.Contains(v, c) {
		return v
	}
	return v + "+" + c
}
