package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/services"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
)

const (
	weekPathTemplate = "%s/planning/%s/calendar/week"
	loginSniffBytes  = 500
)

// Sync fetches the weekplan for [since, since+dayCount) one calendar week at a time.
//
// The stored session must carry an auth cookie; otherwise Sync fails with [shared.ErrNotAuthenticated]
// before any request. An empty first week means the session was rejected and yields
// [shared.ErrSessionExpired]; an empty later week ends pagination early.
func (e *WeekplanEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, since string, dayCount int) (*models.WeekplanSnapshot, error) {
	if dayCount <= 0 {
		return nil, fmt.Errorf("%w: day count must be positive, got %d", shared.ErrInvalidArgument, dayCount)
	}

	sess, err := session.Open(e.store)
	if err != nil {
		return nil, err
	}
	if !sess.IsAuthenticated(e.config.Cookidoo.AuthCookies) {
		return nil, shared.ErrNotAuthenticated
	}
	fetcher := e.fetcher.WithSession(sess)

	now := e.now()
	today := shared.Truncate(now)
	start := shared.ParseDateOr(since, today)
	end := start.AddDate(0, 0, dayCount)
	weeks := dayCount/7 + 2

	e.logger.Info("sync started", "since", shared.FormatDate(start), "days", dayCount, "weeks", weeks)

	var collected []models.DayRecord
	for offset := range weeks {
		weekStart := start.AddDate(0, 0, 7*offset)
		if weekStart.After(end) {
			break
		}
		label := shared.FormatDate(weekStart)

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}
		e.sendProgress(progress, fetchWeekUpdate(offset+1, weeks, label))

		days := e.fetchWeek(ctx, fetcher, weekStart, today)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}

		if len(days) == 0 {
			if offset == 0 {
				return nil, fmt.Errorf("%w: no weekplan data for %s", shared.ErrSessionExpired, label)
			}
			e.sendProgress(progress, emptyWeekUpdate(offset+1, weeks, label))
			break
		}

		e.sendProgress(progress, weekFetchedUpdate(offset+1, weeks, label, days))
		collected = append(collected, days...)
	}

	merged := mergeDays(collected, start, end, today)
	e.sendProgress(progress, mergeDaysUpdate(len(merged)))

	snap := &models.WeekplanSnapshot{
		Timestamp: now.UTC().Format(time.RFC3339),
		SinceDate: shared.FormatDate(start),
		Weekplan:  models.Weekplan{Days: merged},
	}

	e.logger.Info("sync finished", "days", len(merged), "recipes", snap.RecipeCount())
	e.sendProgress(progress, syncDoneUpdate(snap))
	return snap, nil
}

// fetchWeek loads and extracts one week page. Every failure is reported as an empty week.
func (e *WeekplanEngine) fetchWeek(ctx context.Context, f *services.Fetcher, weekStart, today time.Time) []models.DayRecord {
	u := e.weekURL(weekStart, today)

	resp, err := f.Get(ctx, u)
	if err != nil {
		e.logger.Warn("week fetch failed", "week", shared.FormatDate(weekStart), "error", err)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("week fetch returned non-200", "week", shared.FormatDate(weekStart), "status", resp.StatusCode)
		return nil
	}

	html := resp.Text()
	if isLoginPage(html) {
		e.logger.Warn("week fetch landed on the login page", "week", shared.FormatDate(weekStart))
		return nil
	}
	return e.extractor.Extract(html)
}

func (e *WeekplanEngine) weekURL(weekStart, today time.Time) string {
	c := e.config.Cookidoo
	q := url.Values{}
	q.Set("date", shared.FormatDate(weekStart))
	q.Set("today", shared.FormatDate(today))
	return fmt.Sprintf(weekPathTemplate, strings.TrimRight(c.BaseURL, "/"), c.Locale) + "?" + q.Encode()
}

// isLoginPage reports markup of the login flow served in place of the calendar.
func isLoginPage(html string) bool {
	if strings.Contains(html, "oauth2/start") {
		return true
	}
	head := html
	if len(head) > loginSniffBytes {
		head = head[:loginSniffBytes]
	}
	return strings.Contains(strings.ToLower(head), "login")
}

// mergeDays keeps the first record of each date inside [start, end), recomputes isToday
// and orders the result by date. Records with unparsable dates are dropped.
func mergeDays(collected []models.DayRecord, start, end, today time.Time) []models.DayRecord {
	todayLabel := shared.FormatDate(today)
	seen := make(map[string]bool, len(collected))
	merged := make([]models.DayRecord, 0, len(collected))

	for _, day := range collected {
		d, err := shared.ParseDate(day.Date)
		if err != nil {
			continue
		}
		if d.Before(start) || !d.Before(end) {
			continue
		}
		date := shared.FormatDate(d)
		if seen[date] {
			continue
		}
		seen[date] = true

		day.Date = date
		day.IsToday = date == todayLabel
		if day.Recipes == nil {
			day.Recipes = []models.RecipeRecord{}
		}
		merged = append(merged, day)
	}

	slices.SortFunc(merged, func(a, b models.DayRecord) int {
		return strings.Compare(a.Date, b.Date)
	})
	return merged
}
