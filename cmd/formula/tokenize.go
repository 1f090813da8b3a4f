package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"formula/internal/diagfmt"
	"formula/internal/frontend"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize [flags] <expr>",
		Short: "Tokenize a formula",
		Long:  `Tokenize breaks a formula down into its tokens with their spans`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTokenize,
	}
	addFileFlag(cmd)
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func runTokenize(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	format, err := writeFormat(cmd, "pretty", "json")
	if err != nil {
		return err
	}
	src, path, err := readFormula(cmd, args)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	res, err := s.engine.Analyze("", path, src, frontend.StageTokenize)
	if err != nil {
		return err
	}
	s.finish(cmd, fmt.Sprintf("%d tokens", len(res.Tokens)))

	opts.printDiagnostics(cmd, res.Bag, res.FileSet)
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.FormatTokensJSON(out, res.Tokens)
	default:
		err = diagfmt.FormatTokensPretty(out, res.Tokens, res.FileSet)
	}
	if err != nil {
		return err
	}
	if !res.Ok() {
		return errReported
	}
	return nil
}
