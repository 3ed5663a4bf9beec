// Package version holds the build-time version variables for the secmon
// binaries. The zero values ("dev", "none", "unknown") are used for local
// builds; release builds inject the real values via -ldflags.
package version

import "fmt"

// These variables are overridden by ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the formatted version string printed by secmon version.
func Info() string {
	return fmt.Sprintf(
		"secmon version %s\ncommit: %s\nbuilt: %s\n",
		Version,
		Commit,
		Date,
	)
}

// UserAgent identifies secmon in AWS API calls.
func UserAgent() string {
	return "secmon/" + Version
}
