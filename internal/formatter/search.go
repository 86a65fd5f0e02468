package formatter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tmx/internal/models"
)

// SearchResults renders numbered hits with total time, rating and URL.
func SearchResults(result *models.SearchResult) string {
	if result == nil || len(result.Hits) == 0 {
		return "No recipes found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d recipes (showing %d)\n\n", result.Total, len(result.Hits))

	for i, hit := range result.Hits {
		fmt.Fprintf(&b, "  %2d. %s\n", i+1, hit.Title)

		var info []string
		if d := Duration(hit.TotalTime); d != "" {
			info = append(info, "⏱ "+d)
		}
		if hit.Rating > 0 {
			info = append(info, fmt.Sprintf("⭐ %.1f", hit.Rating))
		}
		if len(info) > 0 {
			fmt.Fprintf(&b, "      %s\n", strings.Join(info, "  "))
		}
		fmt.Fprintf(&b, "      %s\n\n", hit.URL)
	}
	return b.String()
}

// Duration formats seconds as "45 Min", "1h 30min" or "2h". Zero or negative input yields "".
func Duration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d Min", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rest)
}
