package driver

import (
	"encoding/json"
	"fmt"
	"io"

	"formula/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	Cached  bool                 `json:"cached,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// timingPayloads collects per-file timings plus a folded run total.
// Reports without timings are skipped.
func timingPayloads(reports []*FileReport) []timingPayload {
	var (
		out   []timingPayload
		total observ.Report
	)
	for _, r := range reports {
		if r == nil || r.Timing == nil {
			continue
		}
		out = append(out, timingPayload{
			Kind:    "file",
			Path:    r.Path,
			Cached:  r.Cached,
			TotalMS: r.Timing.TotalMS,
			Phases:  r.Timing.Phases,
		})
		total.TotalMS += r.Timing.TotalMS
		total.Phases = append(total.Phases, r.Timing.Phases...)
	}
	if len(out) == 0 {
		return nil
	}
	total = total.Folded()
	out = append(out, timingPayload{Kind: "check", TotalMS: total.TotalMS, Phases: total.Phases})
	return out
}

// WriteTimingsJSON writes one JSON object per line: files first, then the total.
func WriteTimingsJSON(w io.Writer, reports []*FileReport) error {
	enc := json.NewEncoder(w)
	for _, p := range timingPayloads(reports) {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteTimingsSummary prints a human-readable table of per-file timings.
func WriteTimingsSummary(w io.Writer, reports []*FileReport) error {
	for _, p := range timingPayloads(reports) {
		label := p.Path
		if p.Kind != "file" {
			label = "total"
		}
		suffix := ""
		if p.Cached {
			suffix = "  (cached)"
		}
		if _, err := fmt.Fprintf(w, "%s: %.2f ms%s\n", label, p.TotalMS, suffix); err != nil {
			return err
		}
		for _, ph := range p.Phases {
			line := fmt.Sprintf("  %-10s %7.2f ms", ph.Name, ph.DurationMS)
			if ph.Count > 1 {
				line += fmt.Sprintf("  x%d", ph.Count)
			}
			if ph.Note != "" {
				line += "  // " + ph.Note
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
