package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/tasks"
)

var (
	_ tea.Msg = syncProgressMsg{}
	_ tea.Msg = syncCompleteMsg{}
	_ tea.Msg = actionCompleteMsg{}
)

// syncProgressMsg carries one update from a running sync.
type syncProgressMsg tasks.ProgressUpdate

// syncCompleteMsg ends a sync; snapshot is nil when err is set.
type syncCompleteMsg struct {
	snapshot *models.WeekplanSnapshot
	err      error
}

// actionCompleteMsg reports the outcome of a plan or shopping list change.
type actionCompleteMsg struct {
	message string
	err     error
}

// statusMsg updates the status line without leaving the current view.
type statusMsg struct {
	text string
	err  error
}
