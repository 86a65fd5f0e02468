// package formatter renders weekplans, search results and shopping lists as text, Markdown, CSV and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

// Export formats
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the supported export formats.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Weekplan renders snap in format.
func Weekplan(snap *models.WeekplanSnapshot, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return WeekplanToText(snap), nil
	case FormatMarkdown:
		return WeekplanToMarkdown(snap), nil
	case FormatCSV:
		return WeekplanToCSV(snap)
	case FormatJSON:
		return toJSON(snap)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WeekplanToText renders the plan one day per block with recipe ids in brackets. Today is marked with ▶.
func WeekplanToText(snap *models.WeekplanSnapshot) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Generated: %s\n", Stamp(snap.Timestamp))
	fmt.Fprintf(&buf, "Since: %s\n\n", snap.SinceDate)

	for _, day := range snap.Days() {
		if day.IsToday {
			fmt.Fprintf(&buf, "▶ %s  ← today\n", DayLabel(day))
		} else {
			fmt.Fprintf(&buf, "  %s\n", DayLabel(day))
		}

		if len(day.Recipes) == 0 {
			buf.WriteString("    (no recipes)\n\n")
			continue
		}
		for _, r := range day.Recipes {
			fmt.Fprintf(&buf, "    • %s  [%s]\n", r.Title, r.ID)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// WeekplanToMarkdown renders the plan with one section per day and linked recipes.
func WeekplanToMarkdown(snap *models.WeekplanSnapshot) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Weekplan\n\n")
	fmt.Fprintf(&buf, "**Generated**: %s\n", Stamp(snap.Timestamp))
	fmt.Fprintf(&buf, "**Since**: %s\n", snap.SinceDate)
	fmt.Fprintf(&buf, "**Recipes**: %d\n\n", snap.RecipeCount())

	for _, day := range snap.Days() {
		today := ""
		if day.IsToday {
			today = " (today)"
		}
		fmt.Fprintf(&buf, "## %s%s\n\n", DayLabel(day), today)

		if len(day.Recipes) == 0 {
			buf.WriteString("_No recipes_\n\n")
			continue
		}
		for _, r := range day.Recipes {
			fmt.Fprintf(&buf, "- [%s](%s) `%s`\n", r.Title, r.URL, r.ID)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// WeekplanToCSV writes one row per planned recipe with columns: Date, Day, Number, Today, ID, Title, URL, Image.
// Days without recipes get a single row with empty recipe columns.
func WeekplanToCSV(snap *models.WeekplanSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Date", "Day", "Number", "Today", "ID", "Title", "URL", "Image"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, day := range snap.Days() {
		prefix := []string{day.Date, day.DayName, day.DayNumber, strconv.FormatBool(day.IsToday)}
		if len(day.Recipes) == 0 {
			if err := writer.Write(append(prefix, "", "", "", "")); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
			continue
		}
		for _, r := range day.Recipes {
			record := append(append([]string{}, prefix...), r.ID, r.Title, r.URL, r.Image)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Today renders the recipes of one day with their URLs.
func Today(day models.DayRecord) string {
	if len(day.Recipes) == 0 {
		return "  No recipes planned for today.\n"
	}

	var b strings.Builder
	for _, r := range day.Recipes {
		fmt.Fprintf(&b, "  • %s  [%s]\n", r.Title, r.ID)
		if r.URL != "" {
			fmt.Fprintf(&b, "    %s\n", r.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// DayLabel formats a day as "Mo 1.  (2024-01-01)".
func DayLabel(day models.DayRecord) string {
	return fmt.Sprintf("%s %s.  (%s)", day.DayName, day.DayNumber, day.Date)
}

// Stamp shortens an RFC 3339 timestamp to "2024-01-01 10:00 UTC".
func Stamp(ts string) string {
	if len(ts) < 16 {
		return "unknown"
	}
	return strings.Replace(ts[:16], "T", " ", 1) + " UTC"
}

// WriteWeekplanExport renders snap in format and writes it to path, creating parent directories.
func WriteWeekplanExport(snap *models.WeekplanSnapshot, format, path string) (string, error) {
	data, err := Weekplan(snap, format)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

func toJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}
