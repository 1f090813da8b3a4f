package version

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Version information for the formula CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each numeric part highlighted.
// Anything after the patch number (pre-release, build) stays plain.
func Colored(enabled bool) string {
	for _, c := range []*color.Color{majorColor, minorColor, patchColor} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	patch, rest := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, rest = patch[:i], patch[i:]
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(patch) + rest
}

// Write prints the version banner used by `formula version`.
func Write(w io.Writer, colored bool) {
	fmt.Fprintf(w, "formula %s\n", Colored(colored))
	if GitCommit != "" {
		fmt.Fprintf(w, "commit: %s\n", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(w, "built:  %s\n", BuildDate)
	}
}
