package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"formula/internal/diag"
	"formula/internal/diagfmt"
	"formula/internal/source"
	"formula/internal/ui"
)

// globalOptions collects the persistent flags every command reads.
type globalOptions struct {
	color          string
	quiet          bool
	timings        bool
	maxDiagnostics int
	pathMode       diagfmt.PathMode
}

func readGlobalOptions(cmd *cobra.Command) (globalOptions, error) {
	pf := cmd.Root().PersistentFlags()
	var (
		opts globalOptions
		err  error
	)
	if opts.color, err = pf.GetString("color"); err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch opts.color {
	case "auto", "on", "off":
	default:
		return opts, fmt.Errorf("invalid --color value %q (expected auto|on|off)", opts.color)
	}
	if opts.quiet, err = pf.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = pf.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	mode, err := pf.GetString("path-mode")
	if err != nil {
		return opts, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	var ok bool
	if opts.pathMode, ok = diagfmt.ParsePathMode(mode); !ok {
		return opts, fmt.Errorf("invalid --path-mode value %q", mode)
	}
	return opts, nil
}

// useColor resolves --color for w.
func (o globalOptions) useColor(w io.Writer) bool {
	switch o.color {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}

// printDiagnostics renders bag to the command's stderr.
func (o globalOptions) printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	w := cmd.ErrOrStderr()
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     o.useColor(w),
		Context:   1,
		PathMode:  o.pathMode,
		ShowNotes: true,
	})
}

// readFormula returns the formula text and the path it is attributed to:
// --file (or - for stdin) when given, otherwise the single argument.
func readFormula(cmd *cobra.Command, args []string) (src, path string, err error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", "", fmt.Errorf("failed to get file flag: %w", err)
	}
	switch {
	case file != "" && len(args) > 0:
		return "", "", fmt.Errorf("pass either --file or an expression, not both")
	case file == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimRight(string(raw), "\r\n"), "<stdin>", nil
	case file != "":
		// #nosec G304 -- путь задан пользователем
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", "", err
		}
		return strings.TrimRight(string(raw), "\r\n"), file, nil
	case len(args) == 1:
		return args[0], "", nil
	default:
		return "", "", fmt.Errorf("expected an expression argument or --file")
	}
}

func addFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "read the formula from a file (- for stdin)")
}

func writeFormat(cmd *cobra.Command, allowed ...string) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to get format flag: %w", err)
	}
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (expected %s)", format, strings.Join(allowed, "|"))
}
