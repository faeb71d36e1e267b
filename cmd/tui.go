package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/subctl/internal/form"
	"github.com/desertthunder/subctl/internal/shared"
	"github.com/desertthunder/subctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI. The stream supervisor runs alongside the program
// and stops with it.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/subctl-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := r.newSession()
	done := make(chan error, 1)
	go func() {
		done <- r.newSupervisor().Run(ctx, session)
	}()

	formPath := r.formPath(cmd)
	model := ui.NewModel(ctx, ui.Opts{
		Session:  session,
		Actions:  r.actions,
		Saver:    r.saver,
		LoadForm: func() (*form.Form, error) { return form.LoadForm(formPath) },
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("stream ended", "err", err)
	}
	return nil
}
