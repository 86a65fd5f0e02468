// Cookidoo plan, shopping list and search endpoints
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
)

const (
	recipeSource      = "VORWERK"
	SearchTokenName   = "search"
	searchTokenMargin = 5 * time.Minute
)

// TokenCache stores short-lived API tokens by name. Get returns nil when nothing is cached.
type TokenCache interface {
	Get(name string) (*models.SearchToken, error)
	Put(name string, token *models.SearchToken) error
}

// CookidooOpts configures a [CookidooService].
type CookidooOpts struct {
	Config *shared.Config
	Store  session.Store
	Client *http.Client
	Tokens TokenCache
	Logger *log.Logger
	Now    func() time.Time
}

// CookidooService wraps the JSON endpoints of the planning, shopping and search features.
//
// Every call loads the stored session first and fails with [shared.ErrNotAuthenticated] without
// network I/O when it carries no auth cookie.
type CookidooService struct {
	config    *shared.Config
	store     session.Store
	fetcher   *Fetcher
	tokens    TokenCache
	extractor *Extractor
	logger    *log.Logger
	now       func() time.Time
}

// NewCookidooService creates a [CookidooService].
func NewCookidooService(opts CookidooOpts) *CookidooService {
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
		client = NewHTTPClient(config, nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger = shared.WithLogger(logger, "component", "cookidoo")

	return &CookidooService{
		config:    config,
		store:     opts.Store,
		fetcher:   NewFetcher(client, ProfileFromConfig(config), logger),
		tokens:    opts.Tokens,
		extractor: NewExtractor(config),
		logger:    logger,
		now:       now,
	}
}

// Session loads the stored session.
func (s *CookidooService) Session() (session.Session, error) {
	return session.Open(s.store)
}

// authorized returns a fetcher carrying the stored session cookies.
func (s *CookidooService) authorized() (*Fetcher, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	if !sess.IsAuthenticated(s.config.Cookidoo.AuthCookies) {
		return nil, shared.ErrNotAuthenticated
	}
	return s.fetcher.WithSession(sess), nil
}

func (s *CookidooService) url(format string, args ...any) string {
	c := s.config.Cookidoo
	prefix := strings.TrimRight(c.BaseURL, "/")
	return prefix + fmt.Sprintf(format, args...)
}

func (s *CookidooService) planHeaders() http.Header {
	return http.Header{
		"Origin":  {strings.TrimRight(s.config.Cookidoo.BaseURL, "/")},
		"Referer": {s.url("/planning/%s/my-week", s.config.Cookidoo.Locale)},
	}
}

// AddRecipeToPlan plans recipe id on date.
func (s *CookidooService) AddRecipeToPlan(ctx context.Context, id, date string) (string, error) {
	f, err := s.authorized()
	if err != nil {
		return "", err
	}
	if _, err := shared.ParseDate(date); err != nil {
		return "", err
	}

	payload := map[string]any{
		"recipeSource": recipeSource,
		"recipeIds":    []string{id},
		"dayKey":       date,
	}
	resp, err := f.SendJSON(ctx, http.MethodPut, s.url("/planning/%s/api/my-day", s.config.Cookidoo.Locale), payload, s.planHeaders())
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	s.logger.Info("recipe planned", "recipe", id, "date", date)
	return message(resp, "recipe added"), nil
}

// RemoveRecipeFromPlan removes recipe id from date.
func (s *CookidooService) RemoveRecipeFromPlan(ctx context.Context, id, date string) (string, error) {
	f, err := s.authorized()
	if err != nil {
		return "", err
	}
	if _, err := shared.ParseDate(date); err != nil {
		return "", err
	}

	u := s.url("/planning/%s/api/my-day/%s/recipes/%s?recipeSource=%s",
		s.config.Cookidoo.Locale, url.PathEscape(date), url.PathEscape(id), recipeSource)
	resp, err := f.SendJSON(ctx, http.MethodDelete, u, nil, s.planHeaders())
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	s.logger.Info("recipe unplanned", "recipe", id, "date", date)
	return message(resp, "recipe removed"), nil
}

// MoveRecipeInPlan removes recipe id from one date and plans it on another.
func (s *CookidooService) MoveRecipeInPlan(ctx context.Context, id, from, to string) (string, error) {
	if _, err := s.RemoveRecipeFromPlan(ctx, id, from); err != nil {
		return "", fmt.Errorf("remove failed: %w", err)
	}
	if _, err := s.AddRecipeToPlan(ctx, id, to); err != nil {
		return "", fmt.Errorf("add failed: %w", err)
	}
	return fmt.Sprintf("recipe moved from %s to %s", from, to), nil
}

// ShoppingList fetches the current shopping list.
func (s *CookidooService) ShoppingList(ctx context.Context) (*models.ShoppingList, error) {
	f, err := s.authorized()
	if err != nil {
		return nil, err
	}

	resp, err := f.GetJSON(ctx, s.shoppingURL(""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var list models.ShoppingList
	if err := resp.DecodeJSON(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// AddRecipesToShoppingList adds the ingredients of the recipes to the shopping list.
func (s *CookidooService) AddRecipesToShoppingList(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: recipe ids", shared.ErrMissingArgument)
	}
	f, err := s.authorized()
	if err != nil {
		return "", err
	}

	header := http.Header{"Origin": {strings.TrimRight(s.config.Cookidoo.BaseURL, "/")}}
	resp, err := f.SendJSON(ctx, http.MethodPost, s.shoppingURL("/add-recipes"), map[string]any{"recipeIDs": ids}, header)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	return message(resp, fmt.Sprintf("%d recipe(s) added", len(ids))), nil
}

// AddShoppingItem adds a free-text item to the shopping list.
func (s *CookidooService) AddShoppingItem(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: item name", shared.ErrMissingArgument)
	}
	f, err := s.authorized()
	if err != nil {
		return "", err
	}

	resp, err := f.SendJSON(ctx, http.MethodPost, s.shoppingURL("/additional-item"), map[string]string{"itemValue": name}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	return fmt.Sprintf("%q added", name), nil
}

// RemoveRecipeFromShoppingList removes one recipe's ingredients from the shopping list.
func (s *CookidooService) RemoveRecipeFromShoppingList(ctx context.Context, id string) (string, error) {
	f, err := s.authorized()
	if err != nil {
		return "", err
	}

	resp, err := f.SendJSON(ctx, http.MethodDelete, s.shoppingURL("/recipe/"+url.PathEscape(id)+"/remove"), struct{}{}, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	return message(resp, "recipe removed"), nil
}

// ClearShoppingList removes every recipe and item from the shopping list.
func (s *CookidooService) ClearShoppingList(ctx context.Context) (string, error) {
	f, err := s.authorized()
	if err != nil {
		return "", err
	}

	resp, err := f.SendJSON(ctx, http.MethodDelete, s.shoppingURL(""), nil, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	return "shopping list cleared", nil
}

// AddPlanToShoppingList adds every recipe planned in [today, today+days) of snap to the shopping list.
// It returns the recipe ids that were sent.
func (s *CookidooService) AddPlanToShoppingList(ctx context.Context, snap *models.WeekplanSnapshot, days int) ([]string, string, error) {
	if days <= 0 {
		return nil, "", fmt.Errorf("%w: days must be positive", shared.ErrInvalidArgument)
	}

	today := shared.Truncate(s.now())
	ids := snap.RecipeIDsBetween(shared.FormatDate(today), shared.FormatDate(today.AddDate(0, 0, days)))
	if len(ids) == 0 {
		return nil, "", nil
	}

	msg, err := s.AddRecipesToShoppingList(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	return ids, msg, nil
}

func (s *CookidooService) shoppingURL(suffix string) string {
	return s.url("/shopping/%s%s", s.config.Cookidoo.Locale, suffix)
}

// SearchToken returns a search API key, reusing a cached one while it stays valid for five more minutes.
func (s *CookidooService) SearchToken(ctx context.Context) (*models.SearchToken, error) {
	f, err := s.authorized()
	if err != nil {
		return nil, err
	}

	if s.tokens != nil {
		cached, err := s.tokens.Get(SearchTokenName)
		if err != nil {
			s.logger.Warn("failed to read cached search token", "error", err)
		} else if cached.ValidFor(s.now(), searchTokenMargin) {
			return cached, nil
		}
	}

	resp, err := f.GetJSON(ctx, s.url("/search/api/subscription/token"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSearchUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", shared.ErrSearchUnavailable, resp.StatusCode)
	}

	var token models.SearchToken
	if err := resp.DecodeJSON(&token); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSearchUnavailable, err)
	}
	if token.APIKey == "" {
		return nil, fmt.Errorf("%w: empty api key", shared.ErrSearchUnavailable)
	}

	if s.tokens != nil {
		if err := s.tokens.Put(SearchTokenName, &token); err != nil {
			s.logger.Warn("failed to cache search token", "error", err)
		}
	}
	return &token, nil
}

type searchResponse struct {
	Hits []struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Image       string  `json:"image"`
		TotalTime   float64 `json:"totalTime"`
		Rating      float64 `json:"rating"`
		Description string  `json:"description"`
	} `json:"hits"`
	NbHits int `json:"nbHits"`
}

// Search queries the recipe index and returns up to limit hits with the total match count.
func (s *CookidooService) Search(ctx context.Context, query string, limit int) (*models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 10
	}

	token, err := s.SearchToken(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/1/indexes/%s/query", s.config.SearchEndpoint(), url.PathEscape(s.config.Search.AlgoliaIndex))
	header := http.Header{
		"X-Algolia-Application-Id": {s.config.Search.AlgoliaAppID},
		"X-Algolia-API-Key":        {token.APIKey},
	}
	resp, err := s.fetcher.SendJSON(ctx, http.MethodPost, u, map[string]any{"query": query, "hitsPerPage": limit}, header)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw searchResponse
	if err := resp.DecodeJSON(&raw); err != nil {
		return nil, err
	}

	result := &models.SearchResult{Hits: make([]models.SearchHit, 0, len(raw.Hits)), Total: raw.NbHits}
	for _, h := range raw.Hits {
		title := h.Title
		if title == "" {
			title = models.UnknownTitle
		}
		result.Hits = append(result.Hits, models.SearchHit{
			ID:          h.ID,
			Title:       title,
			URL:         s.extractor.RecipeURL(h.ID),
			Image:       h.Image,
			TotalTime:   int(h.TotalTime),
			Rating:      h.Rating,
			Description: h.Description,
		})
	}

	s.logger.Debug("search", "query", query, "hits", len(result.Hits), "total", result.Total)
	return result, nil
}

// checkStatus maps error statuses to sentinel errors. 401 and 403 mean the stored session is no longer accepted.
func checkStatus(resp *Response) error {
	switch {
	case resp.OK():
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", shared.ErrSessionExpired, resp.StatusCode)
	default:
		return fmt.Errorf("%w: HTTP %d", shared.ErrAPIRequest, resp.StatusCode)
	}
}

// message returns the "message" field of a JSON response body, or fallback.
func message(resp *Response, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fallback
}
