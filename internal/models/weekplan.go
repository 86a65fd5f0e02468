package models

import (
	"fmt"
	"time"
)

// RecipeRecord is one recipe planned for a day.
type RecipeRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
}

// DayRecord is one calendar day of the weekplan. Date is an ISO date and unique within a snapshot.
type DayRecord struct {
	Date      string         `json:"date"`
	DayName   string         `json:"dayName"`
	DayNumber string         `json:"dayNumber"`
	IsToday   bool           `json:"isToday"`
	Recipes   []RecipeRecord `json:"recipes"`
}

// Weekplan wraps the day list as it appears in the snapshot file.
type Weekplan struct {
	Days []DayRecord `json:"days"`
}

// WeekplanSnapshot is the merged result of one sync.
type WeekplanSnapshot struct {
	Timestamp string   `json:"timestamp"`
	SinceDate string   `json:"sinceDate"`
	Weekplan  Weekplan `json:"weekplan"`
}

// Days returns the snapshot's days.
func (s *WeekplanSnapshot) Days() []DayRecord {
	if s == nil {
		return nil
	}
	return s.Weekplan.Days
}

// RecipeCount returns the number of recipes across all days.
func (s *WeekplanSnapshot) RecipeCount() int {
	n := 0
	for _, d := range s.Days() {
		n += len(d.Recipes)
	}
	return n
}

// GeneratedAt parses the timestamp, returning the zero time when it is malformed.
func (s *WeekplanSnapshot) GeneratedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, s.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Day returns the record for date, if present.
func (s *WeekplanSnapshot) Day(date string) (DayRecord, bool) {
	for _, d := range s.Days() {
		if d.Date == date {
			return d, true
		}
	}
	return DayRecord{}, false
}

// RecipeIDsBetween collects the distinct recipe ids planned on days in [from, to), in plan order.
// Days with malformed dates are skipped; ISO dates compare correctly as strings.
func (s *WeekplanSnapshot) RecipeIDsBetween(from, to string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, d := range s.Days() {
		if _, err := time.Parse("2006-01-02", d.Date); err != nil {
			continue
		}
		if d.Date < from || d.Date >= to {
			continue
		}
		for _, r := range d.Recipes {
			if r.ID == "" || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// SnapshotRecord is a snapshot stored in the history database.
type SnapshotRecord struct {
	id          string
	sequence    int
	createdAt   time.Time
	DayCount    int
	RecipeCount int
	Snapshot    *WeekplanSnapshot
}

// NewSnapshotRecord wraps snap for persistence.
func NewSnapshotRecord(snap *WeekplanSnapshot) *SnapshotRecord {
	return &SnapshotRecord{
		createdAt:   time.Now(),
		DayCount:    len(snap.Days()),
		RecipeCount: snap.RecipeCount(),
		Snapshot:    snap,
	}
}

func (r *SnapshotRecord) ID() string { return r.id }
func (r *SnapshotRecord) Sequence() int { return r.sequence }
func (r *SnapshotRecord) CreatedAt() time.Time { return r.createdAt }
func (r *SnapshotRecord) SetID(id string) { r.id = id }
func (r *SnapshotRecord) SetSequence(seq int) { r.sequence = seq }
func (r *SnapshotRecord) SetCreatedAt(t time.Time) { r.createdAt = t }

// Validate checks that the record carries a snapshot with a start date and unique, ordered days.
func (r *SnapshotRecord) Validate() error {
	if r.Snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	if r.Snapshot.SinceDate == "" {
		return fmt.Errorf("since date is required")
	}
	prev := ""
	for _, d := range r.Snapshot.Days() {
		if d.Date <= prev {
			return fmt.Errorf("days must be strictly ordered by date: %s after %s", d.Date, prev)
		}
		prev = d.Date
	}
	return nil
}
