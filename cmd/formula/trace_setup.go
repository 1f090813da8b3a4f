package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"formula/internal/trace"
)

// setupTracing inspects trace-related flags and initializes the tracer.
// The tracer is attached to the command context; the returned cleanup
// stops the heartbeat and flushes the output.
func setupTracing(cmd *cobra.Command) (trace.Tracer, func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	// --trace без уровня включает phase
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return trace.Nop, func() {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, err
	}

	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	}
	if traceOutput == "" || traceOutput == "-" {
		cfg.Output = cmd.ErrOrStderr()
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	errOut := cmd.ErrOrStderr()
	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(errOut, "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// ringDumper is implemented by tracers that keep recent events in memory.
type ringDumper interface {
	Dump(w io.Writer, format trace.Format) error
}

// dumpTraceOnPanic writes the ring buffer to w before re-panicking, so a
// crash report carries the last spans.
func dumpTraceOnPanic(state *runState, w io.Writer) {
	r := recover()
	if r == nil {
		return
	}
	if d, ok := ringOf(state.tracer); ok {
		fmt.Fprintln(w, "--- trace (most recent events) ---")
		_ = d.Dump(w, trace.FormatText)
	}
	panic(r)
}

func ringOf(t trace.Tracer) (ringDumper, bool) {
	switch tt := t.(type) {
	case *trace.RingTracer:
		return tt, true
	case *trace.MultiTracer:
		for _, inner := range tt.Tracers() {
			if d, ok := ringOf(inner); ok {
				return d, true
			}
		}
	}
	return nil, false
}
