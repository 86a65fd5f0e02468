package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ShoppingShow prints the shopping list, aggregated by ingredient or grouped by recipe.
func (r *Runner) ShoppingShow(ctx context.Context, cmd *cli.Command) error {
	list, err := r.service.ShoppingList(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader("Shopping list")
	if list.Empty() {
		r.writePlain("The shopping list is empty.\n")
		r.writePlainln("Add recipes with:")
		r.writePlain("  tmx shopping add r123456\n")
		r.writePlain("  tmx shopping from-plan\n")
		return nil
	}
	return r.writePlain("%s\n", formatter.ShoppingView(list, cmd.Bool("by-recipe")))
}

// ShoppingAdd adds the ingredients of the given recipes.
func (r *Runner) ShoppingAdd(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one recipe id", shared.ErrMissingArgument)
	}

	r.writePlain("Adding %d recipe(s) to the shopping list...\n", len(ids))
	msg, err := r.service.AddRecipesToShoppingList(ctx, ids)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}

// ShoppingAddItem adds free-text items one by one. A failed item is reported and the rest are still tried.
func (r *Runner) ShoppingAddItem(ctx context.Context, cmd *cli.Command) error {
	items := cmd.Args().Slice()
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item", shared.ErrMissingArgument)
	}

	r.writePlain("Adding %d item(s) to the shopping list...\n", len(items))
	added := 0
	var lastErr error
	for _, item := range items {
		if _, err := r.service.AddShoppingItem(ctx, item); err != nil {
			r.logger.Warn("failed to add item", "item", item, "error", err)
			r.writePlain("  ✗ %s: %v\n", item, err)
			lastErr = err
			continue
		}
		r.writePlain("  ✓ %s\n", item)
		added++
	}

	if added == 0 {
		return fmt.Errorf("no items added: %w", lastErr)
	}
	return r.writePlainln("✓ %d item(s) added", added)
}

// ShoppingFromPlan adds every recipe planned in the next days of the local weekplan.
func (r *Runner) ShoppingFromPlan(ctx context.Context, cmd *cli.Command) error {
	days := cmd.Int("days")

	snap, err := r.loadOrSync(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Adding recipes of the next %d days to the shopping list...\n", days)
	ids, msg, err := r.service.AddPlanToShoppingList(ctx, snap, days)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return r.writePlain("No recipes planned for the next %d days.\n", days)
	}

	r.writePlain("  → %d recipes found\n", len(ids))
	return r.writePlain("✓ %s\n", msg)
}

// ShoppingRemove removes a recipe and its ingredients from the shopping list.
func (r *Runner) ShoppingRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: recipe id", shared.ErrMissingArgument)
	}

	r.writePlain("Removing %s from the shopping list...\n", id)
	msg, err := r.service.RemoveRecipeFromShoppingList(ctx, id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}

// ShoppingClear empties the shopping list.
func (r *Runner) ShoppingClear(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("Clearing the shopping list...\n")
	msg, err := r.service.ClearShoppingList(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}

// ShoppingExport renders the shopping list to stdout or a file.
func (r *Runner) ShoppingExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	list, err := r.service.ShoppingList(ctx)
	if err != nil {
		return err
	}
	if list.Empty() {
		return fmt.Errorf("%w: the shopping list is empty", shared.ErrInvalidInput)
	}

	data, err := formatter.Shopping(list, format, cmd.Bool("by-recipe"))
	if err != nil {
		return err
	}

	if output == "" {
		return r.writePlain("%s", data)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	r.logger.Info("shopping list exported", "path", output, "format", format)
	return r.writePlain("✓ Exported to %s\n", output)
}
