package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/desertthunder/tmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// sync runs the weekplan sync, saves the snapshot file and optionally records it in the history database.
// Progress is logged at debug level.
func (r *Runner) sync(ctx context.Context, since string, days int, record bool) (*models.WeekplanSnapshot, error) {
	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	snap, err := r.engine.Sync(ctx, progress, since, days)
	close(progress)
	<-done
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	if err := r.snapshots.Save(snap); err != nil {
		return nil, err
	}
	r.logger.Info("weekplan saved", "path", r.snapshots.Path(), "days", len(snap.Days()))

	if record {
		repo, err := r.history()
		if err != nil {
			return nil, err
		}
		rec := models.NewSnapshotRecord(snap)
		if err := repo.Create(rec); err != nil {
			return nil, fmt.Errorf("failed to record snapshot: %w", err)
		}
		r.logger.Info("snapshot recorded", "sequence", rec.Sequence())
	}
	return snap, nil
}

// loadOrSync returns the local snapshot, syncing the default range first when there is none.
func (r *Runner) loadOrSync(ctx context.Context) (*models.WeekplanSnapshot, error) {
	snap, err := r.snapshots.Load()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}

	r.writePlain("No local weekplan found, syncing...\n")
	return r.sync(ctx, "", r.config.Sync.Days, false)
}

// PlanShow prints the local weekplan.
func (r *Runner) PlanShow(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.loadOrSync(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	r.writePlainHeader("Weekplan")
	return r.writePlain("%s", formatter.WeekplanToText(snap))
}

// PlanSync fetches the weekplan and replaces the local snapshot.
func (r *Runner) PlanSync(ctx context.Context, cmd *cli.Command) error {
	since := cmd.String("since")
	if since != "" {
		if _, err := shared.ParseDate(since); err != nil {
			return err
		}
	}
	days := cmd.Int("days")
	if days <= 0 {
		days = r.config.Sync.Days
	}

	r.writePlain("Syncing %d days...\n", days)
	snap, err := r.sync(ctx, since, days, cmd.Bool("history"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Synced %d days with %d recipes\n", len(snap.Days()), snap.RecipeCount())
	r.writePlain("  Saved to %s\n", r.snapshots.Path())
	return nil
}

// Today prints the recipes of the current day from the local weekplan.
func (r *Runner) Today(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.loadOrSync(ctx)
	if err != nil {
		return err
	}

	today := r.today()
	day, ok := snap.Day(today)
	if !ok {
		for _, d := range snap.Days() {
			if d.IsToday {
				day, ok = d, true
				break
			}
		}
	}
	if !ok {
		return r.writePlain("No recipes for today (last sync outdated? today: %s)\n", today)
	}

	r.writePlainHeader("Today: " + formatter.DayLabel(day))
	return r.writePlain("%s", formatter.Today(day))
}

// PlanAdd plans a recipe on a day, today by default.
func (r *Runner) PlanAdd(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: recipe id", shared.ErrMissingArgument)
	}
	date := cmd.String("date")
	if date == "" {
		date = r.today()
	}
	if _, err := shared.ParseDate(date); err != nil {
		return err
	}

	r.writePlain("Adding %s to %s...\n", id, date)
	msg, err := r.service.AddRecipeToPlan(ctx, id, date)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}

// PlanRemove removes a recipe from a day.
func (r *Runner) PlanRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: recipe id", shared.ErrMissingArgument)
	}
	date := cmd.String("date")

	r.writePlain("Removing %s from %s...\n", id, date)
	msg, err := r.service.RemoveRecipeFromPlan(ctx, id, date)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}

// PlanMove moves a recipe between days.
func (r *Runner) PlanMove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: recipe id", shared.ErrMissingArgument)
	}
	from, to := cmd.String("from"), cmd.String("to")

	r.writePlain("Moving %s from %s to %s...\n", id, from, to)
	msg, err := r.service.MoveRecipeInPlan(ctx, id, from, to)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}

// PlanExport renders the local weekplan to stdout or a file.
func (r *Runner) PlanExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	snap, err := r.loadOrSync(ctx)
	if err != nil {
		return err
	}

	if output != "" {
		path, err := formatter.WriteWeekplanExport(snap, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("weekplan exported", "path", path, "format", format)
		return r.writePlain("✓ Exported to %s\n", path)
	}

	data, err := formatter.Weekplan(snap, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// historyEntry is the JSON form of a recorded snapshot header.
type historyEntry struct {
	Sequence  int       `json:"sequence"`
	ID        string    `json:"id"`
	SinceDate string    `json:"sinceDate"`
	Days      int       `json:"days"`
	Recipes   int       `json:"recipes"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlanHistory lists the snapshots recorded in the history database, newest first.
func (r *Runner) PlanHistory(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.history()
	if err != nil {
		return err
	}
	records, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entry := historyEntry{
			Sequence:  rec.Sequence(),
			ID:        rec.ID(),
			Days:      rec.DayCount,
			Recipes:   rec.RecipeCount,
			CreatedAt: rec.CreatedAt(),
		}
		if rec.Snapshot != nil {
			entry.SinceDate = rec.Snapshot.SinceDate
		}
		entries = append(entries, entry)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No snapshots recorded yet (run 'tmx plan sync --history').\n")
	}

	r.writePlainHeader("Weekplan history")
	for _, e := range entries {
		r.writePlain("  #%-4d %s  since %s  %2d days  %3d recipes\n",
			e.Sequence, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.SinceDate, e.Days, e.Recipes)
	}
	return nil
}

// PlanHistoryExport writes recorded snapshots to a directory with a manifest.
func (r *Runner) PlanHistoryExport(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.history()
	if err != nil {
		return err
	}
	records, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: no recorded snapshots", shared.ErrSnapshotNotFound)
	}

	sequences := make([]int, 0, len(records))
	for _, rec := range records {
		sequences = append(sequences, rec.Sequence())
	}

	progress := make(chan tasks.ProgressUpdate, len(sequences)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := r.engine.ExportHistory(ctx, progress, repo, sequences, tasks.HistoryExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d of %d snapshots to %s", result.SuccessfulExports, result.TotalSnapshots, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("  ✗ %d failed\n", result.FailedExports)
	}
	return r.writePlain("  Manifest: %s\n", result.ManifestPath)
}
