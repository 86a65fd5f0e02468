package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

const snapshotColumns = `id, sequence, since_date, generated_at, day_count, recipe_count, created_at`

// SnapshotRepository stores the history of synced weekplans.
//
// A snapshot is split over three tables: the header row in snapshots, one row per day in snapshot_days
// and one row per planned recipe in snapshot_recipes.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a snapshot with its days and recipes in one transaction, assigning ID and sequence
func (r *SnapshotRepository) Create(record *models.SnapshotRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	snap := record.Snapshot

	_, err = tx.Exec(
		`INSERT INTO snapshots (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, sequence, snap.SinceDate, snap.GeneratedAt(), len(snap.Days()), snap.RecipeCount(), record.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, day := range snap.Days() {
		_, err := tx.Exec(
			`INSERT INTO snapshot_days (snapshot_id, date, day_name, day_number, is_today) VALUES (?, ?, ?, ?, ?)`,
			id, day.Date, day.DayName, day.DayNumber, day.IsToday,
		)
		if err != nil {
			return fmt.Errorf("failed to insert day %s: %w", day.Date, err)
		}

		for pos, recipe := range day.Recipes {
			var image sql.NullString
			if recipe.Image != "" {
				image = sql.NullString{String: recipe.Image, Valid: true}
			}
			_, err := tx.Exec(
				`INSERT INTO snapshot_recipes (snapshot_id, date, position, recipe_id, title, url, image) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, day.Date, pos, recipe.ID, recipe.Title, recipe.URL, image,
			)
			if err != nil {
				return fmt.Errorf("failed to insert recipe %s: %w", recipe.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	record.DayCount = len(snap.Days())
	record.RecipeCount = snap.RecipeCount()
	return nil
}

// Get retrieves a snapshot with its days by ID
func (r *SnapshotRepository) Get(id string) (*models.SnapshotRecord, error) {
	row := r.db.QueryRow(`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	return r.load(row)
}

// GetBySequence retrieves a snapshot with its days by sequence number
func (r *SnapshotRepository) GetBySequence(sequence int) (*models.SnapshotRecord, error) {
	row := r.db.QueryRow(`SELECT `+snapshotColumns+` FROM snapshots WHERE sequence = ?`, sequence)
	return r.load(row)
}

// Latest retrieves the most recently stored snapshot
func (r *SnapshotRepository) Latest() (*models.SnapshotRecord, error) {
	row := r.db.QueryRow(`SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY sequence DESC LIMIT 1`)
	return r.load(row)
}

// List returns up to limit snapshot headers, newest first. Days are not loaded.
// A non-positive limit returns every snapshot.
func (r *SnapshotRepository) List(limit int) ([]*models.SnapshotRecord, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []*models.SnapshotRecord
	for rows.Next() {
		record, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Count returns the number of stored snapshots
func (r *SnapshotRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// Delete removes a snapshot with its days and recipes
func (r *SnapshotRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_recipes", "snapshot_days"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE snapshot_id = ?", table), id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	result, err := tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, id)
	}

	return tx.Commit()
}

// load scans a header row and attaches its days.
func (r *SnapshotRepository) load(row *sql.Row) (*models.SnapshotRecord, error) {
	record, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	days, err := r.days(record.ID())
	if err != nil {
		return nil, err
	}
	record.Snapshot.Weekplan.Days = days
	return record, nil
}

// days loads the ordered days of a snapshot with their recipes.
func (r *SnapshotRepository) days(id string) ([]models.DayRecord, error) {
	rows, err := r.db.Query(
		`SELECT date, day_name, day_number, is_today FROM snapshot_days WHERE snapshot_id = ? ORDER BY date ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}

	days := []models.DayRecord{}
	index := make(map[string]int)
	for rows.Next() {
		day := models.DayRecord{Recipes: []models.RecipeRecord{}}
		if err := rows.Scan(&day.Date, &day.DayName, &day.DayNumber, &day.IsToday); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		index[day.Date] = len(days)
		days = append(days, day)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	recipes, err := r.db.Query(
		`SELECT date, recipe_id, title, url, image FROM snapshot_recipes WHERE snapshot_id = ? ORDER BY date ASC, position ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer recipes.Close()

	for recipes.Next() {
		var (
			date   string
			recipe models.RecipeRecord
			image  sql.NullString
		)
		if err := recipes.Scan(&date, &recipe.ID, &recipe.Title, &recipe.URL, &image); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipe.Image = image.String
		if i, ok := index[date]; ok {
			days[i].Recipes = append(days[i].Recipes, recipe)
		}
	}

	if err := recipes.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return days, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSnapshot scans a header row into a [models.SnapshotRecord] with an empty day list
func scanSnapshot(s scanner) (*models.SnapshotRecord, error) {
	var (
		id          string
		sequence    int
		sinceDate   string
		generatedAt time.Time
		dayCount    int
		recipeCount int
		createdAt   time.Time
	)

	err := s.Scan(&id, &sequence, &sinceDate, &generatedAt, &dayCount, &recipeCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	record := models.NewSnapshotRecord(&models.WeekplanSnapshot{
		Timestamp: generatedAt.UTC().Format(time.RFC3339),
		SinceDate: sinceDate,
		Weekplan:  models.Weekplan{Days: []models.DayRecord{}},
	})
	record.SetID(id)
	record.SetSequence(sequence)
	record.SetCreatedAt(createdAt)
	record.DayCount = dayCount
	record.RecipeCount = recipeCount
	return record, nil
}
