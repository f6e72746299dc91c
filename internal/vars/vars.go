// Package vars holds build information set by the linker.
package vars

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
)

// Build information, overridden with -ldflags "-X ...".
var (
	Version   = "dev"     // release version
	Commit    = "unknown" // source revision
	BuildTime = ""        // build timestamp
)

// Info returns the version line.
func Info() string {
	commit := Commit
	if commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}

	line := fmt.Sprintf("tiled2godot %s (%s) %s/%s %s", Version, commit, runtime.GOOS, runtime.GOARCH, runtime.Version())
	if BuildTime != "" {
		line += " built " + BuildTime
	}

	return line
}

// Fprint writes the version line to w.
func Fprint(w io.Writer) {
	_, _ = fmt.Fprintln(w, Info())
}

// Print writes the version line to stdout.
func Print() {
	Fprint(os.Stdout)
}
