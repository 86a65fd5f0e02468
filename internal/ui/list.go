package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/models"
)

var (
	_ list.Item = dayItem{}
	_ list.Item = recipeItem{}
)

// dayItem wraps [models.DayRecord] to implement [list.Item].
type dayItem struct {
	day models.DayRecord
}

func (i dayItem) FilterValue() string { return i.day.Date }
func (i dayItem) Title() string {
	label := formatter.DayLabel(i.day)
	if i.day.IsToday {
		return styles.today.Render(label + "  ← today")
	}
	return label
}
func (i dayItem) Description() string {
	switch n := len(i.day.Recipes); n {
	case 0:
		return styles.empty.Render("no recipes")
	case 1:
		return i.day.Recipes[0].Title
	default:
		return fmt.Sprintf("%d recipes • %s", n, i.day.Recipes[0].Title)
	}
}

// recipeItem wraps [models.RecipeRecord] to implement [list.Item].
type recipeItem struct {
	recipe models.RecipeRecord
}

func (i recipeItem) FilterValue() string { return i.recipe.Title }
func (i recipeItem) Title() string       { return i.recipe.Title }
func (i recipeItem) Description() string { return i.recipe.ID }

func dayItems(snap *models.WeekplanSnapshot) []list.Item {
	days := snap.Days()
	items := make([]list.Item, len(days))
	for i, d := range days {
		items[i] = dayItem{day: d}
	}
	return items
}

func recipeItems(day models.DayRecord) []list.Item {
	items := make([]list.Item, len(day.Recipes))
	for i, r := range day.Recipes {
		items[i] = recipeItem{recipe: r}
	}
	return items
}
