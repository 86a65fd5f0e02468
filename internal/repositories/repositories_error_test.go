package repositories

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

func TestSnapshotRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSnapshotRepository(db)
			snap := testSnapshot("")

			if err := repo.Create(models.NewSnapshotRecord(snap)); err == nil {
				t.Fatal("expected validation error for empty since date")
			}
		})

		t.Run("UnorderedDays", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSnapshotRepository(db)
			snap := testSnapshot("2024-01-01")
			days := snap.Weekplan.Days
			days[0], days[1] = days[1], days[0]

			if err := repo.Create(models.NewSnapshotRecord(snap)); err == nil {
				t.Fatal("expected validation error for unordered days")
			}

			count, _ := repo.Count()
			if count != 0 {
				t.Errorf("nothing should be stored, got %d snapshots", count)
			}
		})

		t.Run("NoSnapshot", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if err := NewSnapshotRepository(db).Create(&models.SnapshotRecord{}); err == nil {
				t.Fatal("expected error for record without snapshot")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSnapshotRepository(db)

			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrSnapshotNotFound) {
				t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
			}
			if _, err := repo.GetBySequence(42); !errors.Is(err, shared.ErrSnapshotNotFound) {
				t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
			}
		})

		t.Run("LatestEmpty", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if _, err := NewSnapshotRepository(db).Latest(); !errors.Is(err, shared.ErrSnapshotNotFound) {
				t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if err := NewSnapshotRepository(db).Delete("nonexistent-id"); !errors.Is(err, shared.ErrSnapshotNotFound) {
				t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewSnapshotRepository(db)
		if err := repo.Create(models.NewSnapshotRecord(testSnapshot("2024-01-01"))); err == nil {
			t.Error("expected error creating on closed database")
		}
		if _, err := repo.List(10); err == nil {
			t.Error("expected error listing on closed database")
		}
	})
}

func TestTokenRepositoryErrors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTokenRepository(db)
	if err := repo.Put("search", nil); err == nil {
		t.Error("expected error for nil token")
	}
	if err := repo.Put("search", &models.SearchToken{}); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestSnapshotFileErrors(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weekplan.json")
		os.WriteFile(path, []byte("{not json"), 0644)

		if _, err := NewSnapshotFile(path).Load(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("NilSnapshot", func(t *testing.T) {
		file := NewSnapshotFile(filepath.Join(t.TempDir(), "weekplan.json"))
		if err := file.Save(nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})
}
