package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/desertthunder/tmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive weekplan browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.snapshots.Load()
	if err != nil {
		r.logger.Warn("ignoring unreadable weekplan", "error", err)
		snap = nil
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(shared.ExpandHome(r.config.Storage.Dir), "tmx-tui.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.ModelOpts{
		Service:  r.service,
		Engine:   r.engine,
		Snapshot: snap,
		Save:     r.snapshots.Save,
		Open:     r.open,
		Days:     r.config.Sync.Days,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
