package health

import (
	"context"
	"runtime/debug"
)

// Overridable at build time:
//
//	go build -ldflags "-X github.com/jonwraymond/healthz/health.buildVersion=1.2.3"
var (
	buildVersion string
	buildCommit  string
)

// BuildVersion returns the version of the running binary: the link-time
// override when set, else the main module version from build info, else "".
func BuildVersion() string {
	if buildVersion != "" {
		return buildVersion
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return ""
}

// BuildCommit returns the VCS revision the binary was built from, or "".
func BuildCommit() string {
	if buildCommit != "" {
		return buildCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

// VersionChecker reports the process version as its description. It is
// always healthy; an unknown version is reported as "Unknown".
type VersionChecker struct {
	version string
}

// NewVersionChecker creates a version probe. An empty version falls back to BuildVersion.
func NewVersionChecker(version string) *VersionChecker {
	if version == "" {
		version = BuildVersion()
	}
	if version == "" {
		version = "Unknown"
	}
	return &VersionChecker{version: version}
}

// Name returns "version".
func (c *VersionChecker) Name() string {
	return "version"
}

// Check reports the version.
func (c *VersionChecker) Check(context.Context) Result {
	return Healthy(c.version)
}

// CommitChecker reports the commit the binary was built from.
type CommitChecker struct {
	commit string
}

// NewCommitChecker creates a commit probe. An empty commit falls back to BuildCommit.
func NewCommitChecker(commit string) *CommitChecker {
	if commit == "" {
		commit = BuildCommit()
	}
	if commit == "" {
		commit = "unknown"
	}
	return &CommitChecker{commit: commit}
}

// Name returns "commit".
func (c *CommitChecker) Name() string {
	return "commit"
}

// Check reports the commit hash.
func (c *CommitChecker) Check(context.Context) Result {
	return Healthy(c.commit)
}

// StaticChecker always reports the same result. Useful as a placeholder
// subsystem and in tests.
func StaticChecker(name string, result Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result {
		return result
	})
}
