package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mosa/internal/compiler"
	"mosa/internal/ui"
)

// runCompileWithUI drives runFn in the background while rendering a live
// progress view fed by pipeline's Event stream, mirroring the teacher's
// (vovakirdan-surge) cmd/surge/ui_runner.go pattern of a goroutine doing the
// real work and a bubbletea program consuming a channel of events.
func runCompileWithUI(pipeline *compiler.Pipeline, symbols []string, runFn func() error) error {
	events := make(chan compiler.Event, 256)
	pipeline.Events = events

	errCh := make(chan error, 1)
	go func() {
		err := runFn()
		close(events)
		errCh <- err
	}()

	model := ui.NewProgressModel("compiling", symbols, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	runErr := <-errCh
	if uiErr != nil {
		return uiErr
	}
	return runErr
}
