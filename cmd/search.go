package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/services"
	"github.com/desertthunder/tmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the recipe catalogue. All arguments form the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")

	r.logger.Infof("searching recipes for %q with limit %v", query, limit)
	result, err := r.service.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainHeader(fmt.Sprintf("Search: %s", query))
	return r.writePlain("%s", formatter.SearchResults(result))
}

// Open opens a recipe page in the default browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: recipe id", shared.ErrMissingArgument)
	}

	url := services.NewExtractor(r.config).RecipeURL(id)
	r.logger.Debug("opening recipe", "url", url)
	if err := r.open(url); err != nil {
		return err
	}
	return r.writePlain("Opened %s\n", url)
}
