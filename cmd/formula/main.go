package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"formula/internal/trace"
	"formula/internal/version"
)

// errReported means diagnostics were already printed; main only sets the exit code.
var errReported = errors.New("errors reported")

// runState holds what PersistentPreRunE set up; cobra skips post-run hooks
// when a command fails, so execute releases it instead.
type runState struct {
	tracer   trace.Tracer
	cleanups []func()
}

func (s *runState) release() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

// newRootCmd builds the command tree with its persistent flags.
func newRootCmd(state *runState) *cobra.Command {
	root := &cobra.Command{
		Use:           "formula",
		Short:         "Game-balance formula compiler and content checker",
		Long:          `formula checks, compiles and evaluates balance formulas used by characters, conditions, combat effects and scaling tables`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics per formula")
	pf.String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	pf.String("manifest", "", "project manifest (default: formula.toml found from the working directory; none disables)")

	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "ring buffer capacity for --trace-mode=ring|both")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		stopProf, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		state.cleanups = append(state.cleanups, stopProf)
		tracer, stopTrace, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		state.tracer = tracer
		state.cleanups = append(state.cleanups, stopTrace)
		return nil
	}

	root.AddCommand(
		newTokenizeCmd(),
		newParseCmd(),
		newCheckCmd(),
		newEvalCmd(),
		newCompareCmd(),
		newRefsCmd(),
		newFmtCmd(),
		newVersionCmd(),
	)
	return root
}

// execute runs args and returns the process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	state := &runState{}
	defer state.release()
	defer dumpTraceOnPanic(state, stderr)

	root := newRootCmd(state)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "formula: %v\n", err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
