package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"formula"
	"formula/internal/driver"
	"formula/internal/observ"
	"formula/internal/trace"
)

// loadManifest resolves --manifest; nil means no project.
func loadManifest(cmd *cobra.Command) (*driver.Manifest, error) {
	path, err := cmd.Root().PersistentFlags().GetString("manifest")
	if err != nil {
		return nil, fmt.Errorf("failed to get manifest flag: %w", err)
	}
	switch path {
	case "none":
		return nil, nil
	case "":
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, ok, err := driver.FindManifest(wd)
		if err != nil || !ok {
			return nil, err
		}
		path = found
	}
	return driver.LoadManifest(path)
}

// session is the engine a command works with plus what it was built from.
type session struct {
	engine   *formula.Engine
	manifest *driver.Manifest
	timer    *observ.Timer
	tracer   trace.Tracer
	span     *trace.Span
}

// newSession builds an engine with the manifest namespaces registered and
// opens a driver span named after the command.
func newSession(cmd *cobra.Command, opts globalOptions, extra ...formula.Option) (*session, error) {
	m, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}
	s := &session{manifest: m, tracer: trace.FromContext(cmd.Context())}
	s.span = trace.Begin(s.tracer, trace.ScopeCommand, cmd.Name(), 0)

	engineOpts := []formula.Option{
		formula.WithMaxDiagnostics(opts.maxDiagnostics),
		formula.WithTracer(s.tracer, s.span.ID()),
	}
	if opts.timings {
		s.timer = observ.NewTimer()
		engineOpts = append(engineOpts, formula.WithTimer(s.timer))
	}
	engineOpts = append(engineOpts, extra...)
	engineOpts = append(engineOpts, m.EngineOptions()...)
	s.engine = formula.New(engineOpts...)
	if err := m.Apply(s.engine); err != nil {
		s.span.End("error")
		return nil, err
	}
	return s, nil
}

// finish closes the span and prints timings when asked.
func (s *session) finish(cmd *cobra.Command, detail string) {
	s.span.End(detail)
	if s.timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
	}
}
