// SPDX-License-Identifier: MIT
//
// Package build holds the version information linked into the binary with
// -ldflags, for example:
//
//	go build -ldflags "-X visualizer/pkg/build.buildName=visualizer \
//	  -X visualizer/pkg/build.buildVersion=v1.2.0 ..."
//
// Without them the binary describes itself as a development build.
package build

import "fmt"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Set by the linker.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

const description = "Real-time spectrum bar visualizer"

func devFlags() *ldFlags {
	return &ldFlags{
		Name:        "visualizer",
		Description: description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

var buildFlags = devFlags()

// Initialize copies the linked build information into the flags returned by
// GetBuildFlags. It fails on the first missing value and then leaves the
// development defaults in place.
func Initialize() error {
	required := []struct {
		name  string
		value string
	}{
		{"BuildName", buildName},
		{"BuildTime", buildTime},
		{"BuildCommit", buildCommit},
		{"BuildVersion", buildVersion},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion
	return nil
}

// String formats the version line shown by --version.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
