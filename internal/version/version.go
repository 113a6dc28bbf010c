package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/wsecho/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/wsecho/internal/version.Commit=abc123"
//
// Otherwise they are filled from VCS build info, or fall back to "dev".
var (
	// Version is the semantic version of wsecho
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision, modified, vcsTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = shortRevision(revision, modified == "true")
	}

	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

func shortRevision(revision string, dirty bool) string {
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}

// Full returns the version string including commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Describe returns the multi-line output of the version subcommands.
func Describe(program string) string {
	return fmt.Sprintf("%s %s\n  commit: %s\n  go:     %s %s/%s\n",
		program, Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
