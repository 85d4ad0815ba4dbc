package version

import (
	"runtime/debug"
	"sync"
)

// Set at build time with -ldflags "-X github.com/loudsight/signin/internal/version.version=v1.2.3"
var (
	version   string
	gitCommit string
)

var (
	resolved    string
	resolveOnce sync.Once
)

// fromBuildInfo fills in whatever -ldflags left empty from the embedded build info
func fromBuildInfo(ver, commit string, info *debug.BuildInfo, ok bool) (string, string) {
	if ok && info != nil {
		if ver == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			ver = info.Main.Version
		}
		if commit == "" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	if ver == "" {
		ver = "dev"
	}
	return ver, commit
}

func format(ver, commit string) string {
	if commit != "" && ver != "dev" {
		return ver + "-" + commit
	}
	return ver
}

// GetVersion returns the version string with git commit if available
func GetVersion() string {
	resolveOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		resolved = format(fromBuildInfo(version, gitCommit, info, ok))
	})
	return resolved
}
