package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"formula/internal/format"
	"formula/internal/frontend"
)

func newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [flags] [expression]",
		Short: "Print a formula in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFmt,
	}
	addFileFlag(cmd)
	cmd.Flags().Bool("compact", false, "no spaces around binary operators")
	cmd.Flags().Bool("minimal", false, "keep only the parentheses the grammar needs")
	cmd.Flags().Bool("check", false, "exit with status 1 when the input is not already formatted")
	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	src, path, err := readFormula(cmd, args)
	if err != nil {
		return err
	}
	var fo format.Options
	if fo.Compact, err = cmd.Flags().GetBool("compact"); err != nil {
		return fmt.Errorf("failed to get compact flag: %w", err)
	}
	if fo.Minimal, err = cmd.Flags().GetBool("minimal"); err != nil {
		return fmt.Errorf("failed to get minimal flag: %w", err)
	}
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return fmt.Errorf("failed to get check flag: %w", err)
	}

	res := frontend.Analyze(src, frontend.Options{
		Stage:          frontend.StageSyntax,
		Path:           path,
		MaxDiagnostics: opts.maxDiagnostics,
	})
	opts.printDiagnostics(cmd, res.Bag, res.FileSet)
	if !res.Ok() {
		return errReported
	}
	out := format.Expr(res.Builder, res.Root, fo)

	if check {
		if out != src {
			if !opts.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "not formatted, want: %s\n", out)
			}
			return errReported
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
