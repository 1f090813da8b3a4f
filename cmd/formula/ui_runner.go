package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"formula/internal/driver"
	"formula/internal/ui"
)

type checkOutcome struct {
	reports []*driver.FileReport
	err     error
}

// runCheckWithUI runs the checker in the background and renders its
// progress until every file is finished.
func runCheckWithUI(ctx context.Context, out io.Writer, title string, files []string, checker func(driver.ProgressSink) *driver.Checker) ([]*driver.FileReport, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		c := checker(driver.ChannelSink{Ch: events})
		reports, err := c.CheckFiles(ctx, files)
		outcomeCh <- checkOutcome{reports: reports, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// экран мог закрыться раньше (Ctrl+C), дочитываем события, чтобы воркеры не встали
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.reports, uiErr
	}
	return outcome.reports, outcome.err
}
