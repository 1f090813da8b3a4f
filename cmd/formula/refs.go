package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"formula/internal/contexts"
	"formula/internal/types"
)

func newRefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refs [flags]",
		Short: "List the references and functions a context kind accepts",
		Long: `Refs prints every reference path formulas of --kind may read, with its type,
followed by the builtin functions they may call. Namespaces from formula.toml
are included.`,
		Args: cobra.NoArgs,
		RunE: runRefs,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().String("kind", contexts.KindCharacter, "context kind ("+strings.Join(contexts.Kinds(), "|")+")")
	return cmd
}

type refJSON struct {
	Path string            `json:"path"`
	Type types.PrimaryType `json:"type"`
}

type refsOutput struct {
	Kind       string    `json:"kind"`
	Return     string    `json:"return"`
	References []refJSON `json:"references"`
	Functions  []string  `json:"functions"`
}

func runRefs(cmd *cobra.Command, _ []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	format, err := writeFormat(cmd, "pretty", "json")
	if err != nil {
		return err
	}
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return fmt.Errorf("failed to get kind flag: %w", err)
	}
	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	refs, err := s.engine.References(kind)
	if err != nil {
		s.finish(cmd, "error")
		return err
	}
	fns, err := s.engine.Functions(kind)
	if err != nil {
		s.finish(cmd, "error")
		return err
	}
	ret, err := s.engine.ReturnType(kind)
	if err != nil {
		s.finish(cmd, "error")
		return err
	}
	s.finish(cmd, fmt.Sprintf("refs=%d", len(refs)))

	w := cmd.OutOrStdout()
	if format == "json" {
		out := refsOutput{Kind: kind, Return: ret.String(), References: make([]refJSON, 0, len(refs)), Functions: fns}
		for _, r := range refs {
			out.References = append(out.References, refJSON{Path: r.Path, Type: r.Type})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range refs {
		fmt.Fprintf(tw, "%s\t%s\n", r.Path, r.Type)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\nfunctions: %s\nreturns: %s\n", strings.Join(fns, ", "), ret)
	return err
}
