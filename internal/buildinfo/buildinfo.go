// Package buildinfo holds version metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/flavioheleno/pcd8544/internal/buildinfo.Version=v1.2.0"
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags. When unset it is taken from
// the VCS stamp of the main module, if any.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

var vcsOnce sync.Once

func fillFromVCS() {
	vcsOnce.Do(func() {
		if Commit != "" && Commit != "unknown" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if len(s.Value) > 12 {
					s.Value = s.Value[:12]
				}
				Commit = s.Value
			case "vcs.time":
				if Date == "" || Date == "unknown" {
					Date = s.Value
				}
			}
		}
	})
}

// Short returns a compact build identifier for titles and log lines.
func Short() string {
	fillFromVCS()
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String returns the full identifier: version, commit and date.
func String() string {
	fillFromVCS()
	return Version + " (" + Commit + ", " + Date + ")"
}
