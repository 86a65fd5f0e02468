// Weekplan markup extraction
package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

const (
	daySelector        = "plan-week-day[date]"
	dayNameSelector    = ".my-week__day-short"
	dayNumberSelector  = ".my-week__day-number"
	todayClass         = "my-week__today"
	tileSelector       = "core-tile[data-recipe-id]"
	tileTitleSelector  = ".core-tile__description-text"
	recipePathTemplate = "%s/recipes/recipe/%s/%s"
)

// Extractor turns a rendered week page into day records.
//
// Day blocks are plan-week-day elements carrying a date attribute; recipe tiles are
// core-tile elements carrying a data-recipe-id attribute inside a day block.
type Extractor struct {
	baseURL     string
	locale      string
	assetHost   string
	todayLabels []string
}

// NewExtractor creates an [Extractor] from the [cookidoo] configuration.
func NewExtractor(config *shared.Config) *Extractor {
	return &Extractor{
		baseURL:     strings.TrimRight(config.Cookidoo.BaseURL, "/"),
		locale:      config.Cookidoo.Locale,
		assetHost:   config.Cookidoo.AssetHost,
		todayLabels: config.Cookidoo.TodayLabels,
	}
}

// RecipeURL returns the canonical page of a recipe.
func (e *Extractor) RecipeURL(id string) string {
	return fmt.Sprintf(recipePathTemplate, e.baseURL, e.locale, id)
}

// Extract parses html and returns its day records in document order.
//
// It never fails: unparsable or empty input yields no days, missing day names or numbers
// become empty strings, and tiles without a title are dropped.
func (e *Extractor) Extract(html string) []models.DayRecord {
	days := []models.DayRecord{}
	if strings.TrimSpace(html) == "" {
		return days
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return days
	}

	doc.Find(daySelector).Each(func(_ int, block *goquery.Selection) {
		date := strings.TrimSpace(block.AttrOr("date", ""))
		if date == "" {
			return
		}

		day := models.DayRecord{
			Date:      date,
			DayName:   firstText(block, dayNameSelector),
			DayNumber: firstText(block, dayNumberSelector),
			IsToday:   e.isToday(block),
			Recipes:   []models.RecipeRecord{},
		}

		block.Find(tileSelector).Each(func(_ int, tile *goquery.Selection) {
			if recipe, ok := e.recipe(tile); ok {
				day.Recipes = append(day.Recipes, recipe)
			}
		})

		days = append(days, day)
	})

	return days
}

func (e *Extractor) recipe(tile *goquery.Selection) (models.RecipeRecord, bool) {
	id := strings.TrimSpace(tile.AttrOr("data-recipe-id", ""))
	title := firstText(tile, tileTitleSelector)
	if id == "" || title == "" {
		return models.RecipeRecord{}, false
	}

	return models.RecipeRecord{
		ID:    id,
		Title: title,
		URL:   e.RecipeURL(id),
		Image: e.image(tile),
	}, true
}

// image returns the first tile image served from the asset host.
func (e *Extractor) image(tile *goquery.Selection) string {
	if e.assetHost == "" {
		return ""
	}

	var src string
	tile.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			if v := strings.TrimSpace(img.AttrOr(attr, "")); strings.HasPrefix(v, e.assetHost) {
				src = v
				return false
			}
		}
		return true
	})
	return src
}

func (e *Extractor) isToday(block *goquery.Selection) bool {
	if block.HasClass(todayClass) || block.Find("."+todayClass).Length() > 0 {
		return true
	}

	found := false
	block.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = slices.Contains(e.todayLabels, ownText(s))
		return !found
	})
	return found
}

// firstText returns the trimmed text of the first match of selector below s.
func firstText(s *goquery.Selection, selector string) string {
	return norm(s.Find(selector).First().Text())
}

// ownText returns the trimmed text of s's direct text children.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return norm(b.String())
}

// norm collapses runs of whitespace and trims the result.
func norm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
