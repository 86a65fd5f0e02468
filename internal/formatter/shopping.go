package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

// Shopping renders list in format, either aggregated across recipes or grouped by recipe.
// CSV output is always aggregated.
func Shopping(list *models.ShoppingList, format string, byRecipe bool) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ShoppingToText(list, byRecipe), nil
	case FormatMarkdown:
		return ShoppingToMarkdown(list, byRecipe), nil
	case FormatCSV:
		return ShoppingToCSV(list)
	case FormatJSON:
		return toJSON(list)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ShoppingToText renders the lines still to buy as "qty unit name", followed by manual items.
func ShoppingToText(list *models.ShoppingList, byRecipe bool) []byte {
	var lines []string

	if byRecipe {
		for _, recipe := range list.Recipes {
			lines = append(lines, fmt.Sprintf("=== %s ===", recipe.DisplayTitle()))
			for _, ing := range recipe.Ingredients {
				lines = append(lines, "  "+amount(ing.Quantity.Value, ing.Unit, ing.Name))
			}
			lines = append(lines, "")
		}
	} else {
		for _, ing := range list.Aggregate() {
			if ing.IsOwned || ing.Manual() {
				continue
			}
			lines = append(lines, amount(ing.Quantity, ing.Unit, ing.Name))
		}
	}

	if len(list.AdditionalItems) > 0 {
		lines = append(lines, "", "--- Other ---")
		for _, item := range list.AdditionalItems {
			lines = append(lines, "  "+item.Name)
		}
	}

	return []byte(strings.Join(lines, "\n") + "\n")
}

// ShoppingToMarkdown renders a task list. Owned lines are checked when grouped by recipe and
// omitted from the aggregated list.
func ShoppingToMarkdown(list *models.ShoppingList, byRecipe bool) []byte {
	var lines []string

	if byRecipe {
		for _, recipe := range list.Recipes {
			lines = append(lines, fmt.Sprintf("## %s [%s]", recipe.DisplayTitle(), recipe.ID), "")
			for _, ing := range recipe.Ingredients {
				lines = append(lines, fmt.Sprintf("- [%s] %s", check(ing.IsOwned, "x"), amount(ing.Quantity.Value, ing.Unit, ing.Name)))
			}
			lines = append(lines, "")
		}
	} else {
		lines = append(lines, "# Shopping List", "")
		for _, ing := range list.Aggregate() {
			if ing.IsOwned || ing.Manual() {
				continue
			}
			lines = append(lines, "- [ ] "+amount(ing.Quantity, ing.Unit, ing.Name))
		}
	}

	if len(list.AdditionalItems) > 0 {
		lines = append(lines, "", "## Other", "")
		for _, item := range list.AdditionalItems {
			lines = append(lines, fmt.Sprintf("- [%s] %s", check(item.IsOwned, "x"), item.Name))
		}
	}

	return []byte(strings.Join(lines, "\n") + "\n")
}

// ShoppingToCSV writes the aggregated list with columns: Name, Quantity, Unit, Preparation, Owned, Optional, Category, Recipes.
func ShoppingToCSV(list *models.ShoppingList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Name", "Quantity", "Unit", "Preparation", "Owned", "Optional", "Category", "Recipes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ing := range list.Aggregate() {
		record := []string{
			ing.Name,
			Quantity(ing.Quantity),
			ing.Unit,
			ing.Preparation,
			strconv.FormatBool(ing.IsOwned),
			strconv.FormatBool(ing.Optional),
			ing.Category,
			strings.Join(ing.Recipes, "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ShoppingView renders the list for the terminal: recipes, then the open ingredients with a count
// of the ones already owned. Grouped by recipe, every ingredient is shown with a checkbox.
func ShoppingView(list *models.ShoppingList, byRecipe bool) string {
	var b strings.Builder

	if byRecipe {
		for _, recipe := range list.Recipes {
			fmt.Fprintf(&b, "\n%s  [%s]\n\n", recipe.DisplayTitle(), recipe.ID)
			for _, ing := range recipe.Ingredients {
				fmt.Fprintf(&b, "  [%s] %s%s\n", check(ing.IsOwned, "✓"), amount(ing.Quantity.Value, ing.Unit, ing.Name), notes(ing.Preparation, ing.Optional))
			}
		}
		if len(list.AdditionalItems) > 0 {
			b.WriteString("\nManually added\n\n")
			for _, item := range list.AdditionalItems {
				fmt.Fprintf(&b, "  [%s] %s\n", check(item.IsOwned, "✓"), item.Name)
			}
		}
		return b.String()
	}

	fmt.Fprintf(&b, "\nRecipes (%d):\n", len(list.Recipes))
	for _, recipe := range list.Recipes {
		fmt.Fprintf(&b, "  • %s  [%s]\n", recipe.DisplayTitle(), recipe.ID)
	}

	lines := list.Aggregate()
	if len(lines) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\nIngredients (%d):\n\n", len(lines))
	owned := 0
	for _, ing := range lines {
		if ing.IsOwned {
			owned++
			continue
		}
		fmt.Fprintf(&b, "  [ ] %s%s\n", amount(ing.Quantity, ing.Unit, ing.Name), notes(ing.Preparation, ing.Optional))
	}
	if owned > 0 {
		fmt.Fprintf(&b, "\n  ✓ %d ingredients already owned\n", owned)
	}
	return b.String()
}

// Quantity prints whole amounts without decimals and others with one decimal place.
func Quantity(q float64) string {
	if q == float64(int64(q)) {
		return strconv.FormatInt(int64(q), 10)
	}
	return strconv.FormatFloat(q, 'f', 1, 64)
}

// amount joins quantity, unit and name, skipping an empty unit.
func amount(q float64, unit, name string) string {
	if unit == "" {
		return Quantity(q) + " " + name
	}
	return Quantity(q) + " " + unit + " " + name
}

func notes(preparation string, optional bool) string {
	var s string
	if preparation != "" {
		s += " (" + preparation + ")"
	}
	if optional {
		s += " (optional)"
	}
	return s
}

func check(done bool, mark string) string {
	if done {
		return mark
	}
	return " "
}
