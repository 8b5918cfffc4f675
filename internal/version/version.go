// Package version exposes the build metadata stamped into rowpipe binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Overridden at release time via -ldflags "-X".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

const shortCommitLen = 7

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Module    string `json:"module"`
	Dirty     bool   `json:"dirty"`
}

// Current assembles build info, preferring ldflags values and falling back to
// the VCS metadata the toolchain embeds in module builds.
func Current() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = setting.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = setting.Value
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// String renders the multi-line form the version subcommand prints.
func (i Info) String() string {
	var sb strings.Builder
	sb.WriteString("rowpipe ")
	sb.WriteString(i.Version)
	if i.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteByte('\n')

	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > shortCommitLen {
			commit = commit[:shortCommitLen]
		}
		fmt.Fprintf(&sb, "commit: %s\n", commit)
	}
	if i.Date != "" {
		fmt.Fprintf(&sb, "built:  %s\n", i.Date)
	}
	fmt.Fprintf(&sb, "go:     %s\n", i.GoVersion)
	if i.Module != "" {
		fmt.Fprintf(&sb, "module: %s\n", i.Module)
	}
	return sb.String()
}

// UserAgent identifies rowpipe in outbound HTTP requests, such as currency
// rate fetches.
func UserAgent() string {
	return "rowpipe/" + Version
}
