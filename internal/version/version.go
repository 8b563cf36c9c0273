package version

import (
	"os/exec"
	"strings"
	"sync"
)

var (
	Version = "0.4.0"
	Commit  = "unknown"
	Date    = "unknown"
)

type gitFunc func(args ...string) (string, error)

var (
	resolveOnce sync.Once
	resolved    string
)

// Resolve returns the build version, with a git describe suffix when run
// from a checkout whose HEAD is not a release tag.
func Resolve() string {
	resolveOnce.Do(func() {
		resolved = resolveVersion(Version, runGit)
	})
	return resolved
}

// UserAgent identifies voxclone to the inference service.
func UserAgent() string {
	return "voxclone/" + Resolve()
}

func resolveVersion(base string, git gitFunc) string {
	if base == "" {
		base = "0.0.0"
	}

	if suffix := gitSuffix(base, git); suffix != "" {
		return base + "-" + suffix
	}
	return base
}

func gitSuffix(base string, git gitFunc) string {
	if _, err := git("rev-parse", "--git-dir"); err != nil {
		return ""
	}
	if _, err := git("describe", "--tags", "--exact-match"); err == nil {
		return ""
	}

	desc, err := git("describe", "--tags", "--dirty", "--always")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(desc, "v"+base+"-")
}

func runGit(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
