// Package compileinfo reports how the running binary was built, from the
// module and VCS information the go toolchain embeds.
package compileinfo

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Package == "" {
		return "Build information is unavailable for this binary."
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "This %s binary", c.Package)
	if c.Version != "" && c.Version != "(devel)" {
		fmt.Fprintf(&b, " (%s)", c.Version)
	}
	fmt.Fprintf(&b, " was built with %s", c.GoVersion)
	if c.Commit != "" {
		fmt.Fprintf(&b, " at commit %s at time %s", c.Commit, c.CommitTime)
	}
	b.WriteString(".")
	if c.Modified {
		b.WriteString(" Files in the repo were modified after that commit.")
	}

	return b.String()
}

// Get reads the build information. Fields stay empty when it is missing, as in
// test binaries built without VCS stamping.
func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Fprint writes the build information as one line to w.
func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}
