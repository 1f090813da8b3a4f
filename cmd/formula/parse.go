package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"formula/internal/diagfmt"
	"formula/internal/frontend"
	"formula/internal/types"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [flags] <expr>",
		Short: "Parse a formula and print its tree",
		Long: `Parse analyzes a formula and prints the expression tree.
With --kind the formula is also validated and type-checked against that
context, and every node is annotated with its type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}
	addFileFlag(cmd)
	cmd.Flags().String("format", "pretty", "output format (pretty|json|tree)")
	cmd.Flags().String("kind", "", "context kind to check against (character|character-condition|effect|params|value)")
	cmd.Flags().String("stage", "", "last stage to run (syntax|validate|typecheck|all); default syntax, or all with --kind")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	format, err := writeFormat(cmd, "pretty", "json", "tree")
	if err != nil {
		return err
	}
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return fmt.Errorf("failed to get kind flag: %w", err)
	}
	stageStr, err := cmd.Flags().GetString("stage")
	if err != nil {
		return fmt.Errorf("failed to get stage flag: %w", err)
	}
	stage := frontend.StageSyntax
	if kind != "" {
		stage = frontend.StageAll
	}
	if stageStr != "" {
		if stage, err = frontend.ParseStage(stageStr); err != nil {
			return err
		}
	}
	src, path, err := readFormula(cmd, args)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	res, err := s.engine.Analyze(kind, path, src, stage)
	if err != nil {
		s.finish(cmd, "error")
		return err
	}
	s.finish(cmd, string(res.Reached))

	opts.printDiagnostics(cmd, res.Bag, res.FileSet)
	if res.Builder == nil || !res.Root.IsValid() {
		return errReported
	}

	var ts diagfmt.TypeSource
	if res.Types != nil {
		ts = res.Types
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.FormatASTJSON(out, res.Builder, res.Root, ts)
	case "tree":
		err = diagfmt.FormatASTTree(out, res.Builder, res.Root)
	default:
		err = diagfmt.FormatASTPretty(out, res.Builder, res.Root, res.FileSet, ts)
	}
	if err != nil {
		return err
	}
	if !res.Ok() {
		return errReported
	}
	if kind != "" && res.Type != types.Invalid && !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "type: %s\n", res.Type)
	}
	return nil
}
