package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/services"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
	"golang.org/x/time/rate"
)

// SyncEngine defines the weekplan synchronization operation.
type SyncEngine interface {
	// Sync fetches dayCount days starting at since (YYYY-MM-DD, today when unparsable) and returns a fresh snapshot.
	Sync(ctx context.Context, progress chan<- ProgressUpdate, since string, dayCount int) (*models.WeekplanSnapshot, error)
}

// EngineOpts configures a [WeekplanEngine].
type EngineOpts struct {
	Config *shared.Config
	Store  session.Store
	Client *http.Client
	Logger *log.Logger
	Now    func() time.Time
}

// WeekplanEngine implements [SyncEngine] against the service's calendar pages.
// Contains dependencies on the cookie store, fetcher and markup extractor.
type WeekplanEngine struct {
	config    *shared.Config
	store     session.Store
	fetcher   *services.Fetcher
	extractor *services.Extractor
	limiter   *rate.Limiter
	logger    *log.Logger
	now       func() time.Time
}

// NewWeekplanEngine creates a new WeekplanEngine.
//
// Week fetches are paced at sync.requests_per_second; a non-positive rate disables pacing.
func NewWeekplanEngine(opts EngineOpts) *WeekplanEngine {
	config := opts.Config
	if config == nil {
		config = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	client := opts.Client
	if client == nil {
		client = services.NewHTTPClient(config, nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger = shared.WithLogger(logger, "component", "sync")

	limit := rate.Inf
	if rps := config.Sync.RequestsPerSecond; rps > 0 {
		limit = rate.Limit(rps)
	}

	return &WeekplanEngine{
		config:    config,
		store:     opts.Store,
		fetcher:   services.NewFetcher(client, services.ProfileFromConfig(config), logger),
		extractor: services.NewExtractor(config),
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		now:       now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *WeekplanEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
