package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"formula"
	"formula/internal/contexts"
	"formula/internal/driver"
	"formula/internal/frontend"
	"formula/internal/interp"
	"formula/internal/types"
	"formula/internal/value"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [flags] [expression]",
		Short: "Compile a formula for a context and evaluate it once",
		Long: `Eval compiles the expression for --kind and runs it against an argument
built from --case (inline TOML in the content file case syntax), --param and
--value. With --oracle the tree-walking interpreter evaluates the same
formula and both results must agree (params and value kinds only).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEval,
	}
	addFileFlag(cmd)
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().String("kind", contexts.KindValue, "context kind (character|character-condition|effect|params|value)")
	cmd.Flags().StringArrayP("param", "p", nil, "parameter binding name=number (repeatable)")
	cmd.Flags().Float64("value", 0, "input of a value formula")
	cmd.Flags().String("case", "", `argument as inline TOML, e.g. 'self = { stats = { hitpoints = 10 } }'`)
	cmd.Flags().Float64("rand", -1, "fixed result of the random source in [0,1) (negative = real random)")
	cmd.Flags().Bool("oracle", false, "cross-check the result with the interpreter")
	return cmd
}

// fixedRand always returns the same number.
type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

type evalOutput struct {
	Kind   string            `json:"kind"`
	Type   types.PrimaryType `json:"type"`
	Value  value.Value       `json:"value"`
	Oracle *value.Value      `json:"oracle,omitempty"`
}

func runEval(cmd *cobra.Command, args []string) error {
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
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return fmt.Errorf("failed to get kind flag: %w", err)
	}
	useOracle, err := cmd.Flags().GetBool("oracle")
	if err != nil {
		return fmt.Errorf("failed to get oracle flag: %w", err)
	}
	if useOracle && kind != contexts.KindParams && kind != contexts.KindValue {
		return fmt.Errorf("--oracle supports only the %s and %s kinds", contexts.KindParams, contexts.KindValue)
	}
	c, err := readCase(cmd)
	if err != nil {
		return err
	}
	rnd, err := cmd.Flags().GetFloat64("rand")
	if err != nil {
		return fmt.Errorf("failed to get rand flag: %w", err)
	}
	var extra []formula.Option
	if rnd >= 0 {
		if rnd >= 1 {
			return fmt.Errorf("--rand must be below 1, got %g", rnd)
		}
		extra = append(extra, formula.WithRand(fixedRand(rnd)))
	}

	s, err := newSession(cmd, opts, extra...)
	if err != nil {
		return err
	}

	var res *formula.Result
	if kind == contexts.KindParams && len(c.Params) > 0 {
		res, err = s.engine.CompileParams(path, src, sortedKeys(c.Params)...)
	} else {
		res, err = s.engine.CompileAt(kind, path, src)
	}
	if err != nil {
		s.finish(cmd, "error")
		return err
	}
	opts.printDiagnostics(cmd, res.Bag, res.FileSet)
	if !res.Ok() {
		s.finish(cmd, "error")
		return errReported
	}

	got, err := res.Callable.Eval(c.Arg(kind))
	if err != nil {
		s.finish(cmd, "error")
		return err
	}
	out := evalOutput{Kind: kind, Type: res.Type, Value: got}

	if useOracle {
		want, err := oracleEval(s, kind, path, src, c, rnd)
		if err != nil {
			s.finish(cmd, "error")
			return fmt.Errorf("oracle: %w", err)
		}
		out.Oracle = &want
		if !got.Identical(want) {
			s.finish(cmd, "mismatch")
			return fmt.Errorf("compiled result %s differs from interpreter result %s", got, want)
		}
	}
	s.finish(cmd, got.String())

	w := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintln(w, got.String())
	if !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "type: %s\n", res.Type)
	}
	return nil
}

// readCase merges --case, --param and --value into one case.
func readCase(cmd *cobra.Command) (*driver.Case, error) {
	var c driver.Case
	inline, err := cmd.Flags().GetString("case")
	if err != nil {
		return nil, fmt.Errorf("failed to get case flag: %w", err)
	}
	if inline != "" {
		md, err := toml.Decode(inline, &c)
		if err != nil {
			return nil, fmt.Errorf("invalid --case: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("invalid --case: unknown key %q", undecoded[0].String())
		}
	}
	pairs, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return nil, fmt.Errorf("failed to get param flag: %w", err)
	}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q (expected name=number)", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --param %q: %w", pair, err)
		}
		if c.Params == nil {
			c.Params = make(map[string]float64)
		}
		c.Params[name] = v
	}
	if cmd.Flags().Changed("value") {
		if c.Value, err = cmd.Flags().GetFloat64("value"); err != nil {
			return nil, fmt.Errorf("failed to get value flag: %w", err)
		}
	}
	return &c, nil
}

// oracleEval runs the interpreter over the parsed tree of src.
func oracleEval(s *session, kind, path, src string, c *driver.Case, rnd float64) (value.Value, error) {
	res, err := s.engine.Analyze(kind, path, src, frontend.StageSyntax)
	if err != nil {
		return value.Value{}, err
	}
	if !res.Ok() {
		return value.Value{}, res.Bag.Err()
	}
	env := interp.NewMapEnv(nil)
	if rnd >= 0 {
		env.Rand = fixedRand(rnd)
	}
	switch kind {
	case contexts.KindParams:
		// незаданные параметры читаются как 0, как и в скомпилированной форме
		if s.manifest != nil {
			for _, name := range s.manifest.Config.Params {
				env.Set(name, value.Number(0))
			}
		}
		for name, v := range c.Params {
			env.Set(name, value.Number(v))
		}
	case contexts.KindValue:
		env.Set(contexts.ValueRef, value.Number(c.Value))
	}
	return interp.Eval(res.Builder, res.Root, env)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
