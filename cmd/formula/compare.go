package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"formula"
	"formula/internal/equiv"
)

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <left> <right>",
		Short: "Check that two formulas parse to the same tree",
		Long: `Compare parses both formulas and walks the trees side by side. There is no
algebraic normalisation: a+b and b+a differ, and so do a and (a).
Exits with status 1 on the first difference.`,
		Args: cobra.ExactArgs(2),
		RunE: runCompare,
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	err = formula.Compare(args[0], args[1])
	var mismatch *equiv.MismatchError
	switch {
	case err == nil:
		if !opts.quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "equivalent")
		}
		return nil
	case errors.As(err, &mismatch):
		fmt.Fprintf(cmd.OutOrStdout(), "not equivalent: %s\n", mismatch.Reason)
		fmt.Fprintf(cmd.OutOrStdout(), "  left  %d:%d  %s\n", mismatch.Left.Start, mismatch.Left.End, mismatch.LeftText)
		fmt.Fprintf(cmd.OutOrStdout(), "  right %d:%d  %s\n", mismatch.Right.Start, mismatch.Right.End, mismatch.RightText)
		return errReported
	default:
		return err
	}
}
