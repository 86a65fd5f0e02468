package main

import (
	"context"

	"github.com/desertthunder/tmx/internal/services"
	"github.com/urfave/cli/v3"
)

type cacheEntry struct {
	name  string
	clear func() (bool, error)
}

// CacheClear deletes the local weekplan and the cached search token; with --all the session cookies too.
//
// Every entry is attempted; the first failure is returned after the others were tried.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	entries := []cacheEntry{
		{name: "weekplan (" + r.snapshots.Path() + ")", clear: r.snapshots.Remove},
		{name: "search token", clear: r.clearSearchToken},
	}
	if cmd.Bool("all") {
		entries = append(entries, cacheEntry{name: "cookies (" + r.config.CookiesPath() + ")", clear: r.clearCookies})
	}

	deleted := 0
	var firstErr error
	for _, e := range entries {
		ok, err := e.clear()
		switch {
		case err != nil:
			r.logger.Error("failed to clear cache entry", "entry", e.name, "error", err)
			r.writePlain("  ✗ %s: %v\n", e.name, err)
			if firstErr == nil {
				firstErr = err
			}
		case ok:
			r.writePlain("  ✓ deleted %s\n", e.name)
			deleted++
		default:
			r.writePlain("  - %s not present\n", e.name)
		}
	}

	r.writePlainln("%d item(s) deleted", deleted)
	if cmd.Bool("all") && deleted > 0 {
		r.writePlain("Run 'tmx login' to sign in again.\n")
	}
	return firstErr
}

func (r *Runner) clearSearchToken() (bool, error) {
	repo, err := r.tokens()
	if err != nil {
		return false, err
	}
	return repo.Delete(services.SearchTokenName)
}

func (r *Runner) clearCookies() (bool, error) {
	cookies, err := r.store.Load()
	if err != nil {
		return false, err
	}
	if len(cookies) == 0 {
		return false, nil
	}
	return true, r.store.Clear()
}
