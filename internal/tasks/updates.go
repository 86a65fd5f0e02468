package tasks

import (
	"fmt"

	"github.com/desertthunder/tmx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchWeek Phase = iota
	MergeDays
	ExportSnapshot
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchWeek:
		return "fetch_week"
	case MergeDays:
		return "merge_days"
	case ExportSnapshot:
		return "export_snapshot"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchWeekUpdate(step, total int, weekStart string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWeek,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching week of %s...", step, total, weekStart),
	}
}

func weekFetchedUpdate(step, total int, weekStart string, days []models.DayRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWeek,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Week of %s: %d days", step, total, weekStart, len(days)),
		Data:    days,
	}
}

func emptyWeekUpdate(step, total int, weekStart string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWeek,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Week of %s returned no days, stopping", step, total, weekStart),
	}
}

func mergeDaysUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeDays,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Merged %d days", count),
	}
}

func syncDoneUpdate(snap *models.WeekplanSnapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Synced %d days with %d recipes", len(snap.Days()), snap.RecipeCount()),
		Data:    snap,
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
