package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"formula/internal/diag"
	"formula/internal/diagfmt"
	"formula/internal/driver"
	"formula/internal/types"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] [file.toml|directory...]",
		Short: "Check content files: compile every formula and run its cases",
		Long: `Check loads formula content files, compiles each [formulas.<name>] entry
for its context and evaluates the declared cases. Without arguments the
directories listed in formula.toml [check].include are checked.`,
		RunE: runCheck,
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	cmd.Flags().Int("jobs", 0, "max files checked in parallel (0 = manifest value or GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
	cmd.Flags().Bool("cache", false, "reuse results of unchanged clean files from the disk cache")
	cmd.Flags().Bool("clear-cache", false, "drop the disk cache before checking")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	format, err := writeFormat(cmd, "pretty", "json", "short")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}

	s, err := newSession(cmd, opts)
	if err != nil {
		return err
	}
	m := s.manifest

	roots := args
	if len(roots) == 0 {
		if m == nil {
			s.finish(cmd, "error")
			return fmt.Errorf("no paths given and no %s found", driver.ManifestName)
		}
		roots = m.IncludeDirs()
	}
	files, err := driver.ListContentFiles(roots...)
	if err != nil {
		s.finish(cmd, "error")
		return err
	}

	checkOpts := driver.Options{
		Jobs:           jobs,
		MaxDiagnostics: opts.maxDiagnostics,
		Timings:        opts.timings,
		Tracer:         s.tracer,
		ParentSpan:     s.span.ID(),
	}
	if m != nil {
		checkOpts.Salt = m.Digest
		if checkOpts.Jobs == 0 {
			checkOpts.Jobs = m.Config.Check.Jobs
		}
		useCache = useCache || m.Config.Check.Cache
	}
	if useCache || clearCache {
		cache, err := driver.OpenDiskCache("formula")
		if err != nil {
			s.finish(cmd, "error")
			return fmt.Errorf("disk cache: %w", err)
		}
		if clearCache {
			if err := cache.DropAll(); err != nil {
				s.finish(cmd, "error")
				return fmt.Errorf("disk cache: %w", err)
			}
		}
		if useCache {
			checkOpts.Cache = cache
		}
	}

	var reports []*driver.FileReport
	if format == "pretty" && shouldUseTUI(mode, cmd.OutOrStdout()) && len(files) > 0 {
		reports, err = runCheckWithUI(cmd.Context(), cmd.OutOrStdout(), "checking formulas", files, func(sink driver.ProgressSink) *driver.Checker {
			o := checkOpts
			o.Progress = sink
			return driver.NewChecker(s.engine, o)
		})
	} else {
		reports, err = driver.NewChecker(s.engine, checkOpts).CheckFiles(cmd.Context(), files)
	}
	s.finish(cmd, fmt.Sprintf("files=%d", len(files)))
	if err != nil {
		return err
	}

	switch format {
	case "json":
		err = writeCheckJSON(cmd.OutOrStdout(), reports, opts)
	case "short":
		err = writeCheckShort(cmd.OutOrStdout(), reports)
	default:
		err = writeCheckPretty(cmd, reports, opts)
	}
	if err != nil {
		return err
	}
	if opts.timings {
		if err := driver.WriteTimingsSummary(cmd.ErrOrStderr(), reports); err != nil {
			return err
		}
	}
	for _, r := range reports {
		if !r.Ok() {
			return errReported
		}
	}
	return nil
}

func writeCheckPretty(cmd *cobra.Command, reports []*driver.FileReport, opts globalOptions) error {
	var files, formulas, cases, failed, cached int
	for _, r := range reports {
		files++
		if r.Cached {
			cached++
		}
		opts.printDiagnostics(cmd, r.Bag, r.FileSet)
		for _, f := range r.Formulas {
			formulas++
			cases += f.Cases
			if f.Errors() > 0 {
				failed++
				opts.printDiagnostics(cmd, f.Bag, f.FileSet)
			}
		}
		if r.Bag.HasErrors() {
			failed++
		}
	}
	if opts.quiet {
		return nil
	}
	summary := fmt.Sprintf("checked %d formulas in %d files, %d cases", formulas, files, cases)
	if cached > 0 {
		summary += fmt.Sprintf(" (%d files cached)", cached)
	}
	if failed > 0 {
		summary += fmt.Sprintf(": %d failed", failed)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), summary)
	return err
}

// writeCheckShort prints every diagnostic as one line, file by file.
func writeCheckShort(w io.Writer, reports []*driver.FileReport) error {
	for _, r := range reports {
		lines := []string{diag.FormatShort(r.Bag.Items(), r.FileSet, true)}
		for _, f := range r.Formulas {
			if f.Bag != nil && f.Bag.Len() > 0 {
				lines = append(lines, diag.FormatShort(f.Bag.Items(), f.FileSet, true))
			}
		}
		for _, l := range lines {
			if l == "" {
				continue
			}
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
	}
	return nil
}

type checkJSON struct {
	Files  []fileJSON `json:"files"`
	Errors int        `json:"errors"`
}

type fileJSON struct {
	Path        string                    `json:"path"`
	Cached      bool                      `json:"cached,omitempty"`
	Formulas    []formulaJSON             `json:"formulas"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

type formulaJSON struct {
	Name            string                     `json:"name"`
	Kind            string                     `json:"kind"`
	Type            types.PrimaryType          `json:"type"`
	Cases           int                        `json:"cases"`
	ExpectedFailure bool                       `json:"expected_failure,omitempty"`
	Diagnostics     *diagfmt.DiagnosticsOutput `json:"diagnostics,omitempty"`
}

func writeCheckJSON(w io.Writer, reports []*driver.FileReport, opts globalOptions) error {
	jsonOpts := diagfmt.JSONOpts{IncludePositions: true, PathMode: opts.pathMode, IncludeNotes: true}
	out := checkJSON{Files: make([]fileJSON, 0, len(reports))}
	for _, r := range reports {
		fj := fileJSON{
			Path:        r.Path,
			Cached:      r.Cached,
			Formulas:    make([]formulaJSON, 0, len(r.Formulas)),
			Diagnostics: diagfmt.BuildDiagnosticsOutput(r.Bag, r.FileSet, jsonOpts),
		}
		for _, f := range r.Formulas {
			fm := formulaJSON{
				Name:            f.Name,
				Kind:            f.Kind,
				Type:            f.Type,
				Cases:           f.Cases,
				ExpectedFailure: f.ExpectedFailure,
			}
			if f.Bag != nil && f.Bag.Len() > 0 {
				d := diagfmt.BuildDiagnosticsOutput(f.Bag, f.FileSet, jsonOpts)
				fm.Diagnostics = &d
			}
			fj.Formulas = append(fj.Formulas, fm)
		}
		out.Files = append(out.Files, fj)
		out.Errors += r.Errors()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
