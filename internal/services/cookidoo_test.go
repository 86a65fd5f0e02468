package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/session"
	"github.com/desertthunder/tmx/internal/shared"
	th "github.com/desertthunder/tmx/internal/testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// fakeAPI answers every request with the response registered for "METHOD /path", or 200 "{}".
type fakeAPI struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeAPI) on(route string, status int, body string) {
	if f.responses == nil {
		f.responses = map[string]fakeResponse{}
	}
	f.responses[route] = fakeResponse{status, body}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		resp = fakeResponse{http.StatusOK, "{}"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	w.Write([]byte(resp.body))
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("expected a request")
	}
	return f.requests[len(f.requests)-1]
}

// memTokens is an in-memory [TokenCache].
type memTokens struct {
	tokens map[string]*models.SearchToken
	puts   int
}

func (m *memTokens) Get(name string) (*models.SearchToken, error) {
	return m.tokens[name], nil
}

func (m *memTokens) Put(name string, token *models.SearchToken) error {
	if m.tokens == nil {
		m.tokens = map[string]*models.SearchToken{}
	}
	m.tokens[name] = token
	m.puts++
	return nil
}

const testToday = "2024-03-05"

func newTestService(t *testing.T, api *fakeAPI, store session.Store, tokens TokenCache) *CookidooService {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	return NewCookidooService(CookidooOpts{
		Config: th.Config(srv.URL),
		Store:  store,
		Client: srv.Client(),
		Tokens: tokens,
		Now:    th.Clock(testToday),
	})
}

func assertJSON(t *testing.T, got string, want any) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("request body is not JSON: %q", got)
	}
	data, _ := json.Marshal(want)
	json.Unmarshal(data, &w)

	gb, _ := json.Marshal(g)
	wb, _ := json.Marshal(w)
	if string(gb) != string(wb) {
		t.Errorf("expected body %s, got %s", wb, gb)
	}
}

func TestCookidooServicePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("AddRecipeToPlan", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("PUT /planning/de-DE/api/my-day", http.StatusOK, `{"message":"Rezept hinzugefügt"}`)
		svc := newTestService(t, api, th.AuthedStore(), nil)

		msg, err := svc.AddRecipeToPlan(ctx, "r907015", "2024-03-04")
		if err != nil {
			t.Fatalf("AddRecipeToPlan failed: %v", err)
		}
		if msg != "Rezept hinzugefügt" {
			t.Errorf("expected server message, got %q", msg)
		}

		req := api.last(t)
		if req.Method != http.MethodPut || req.Path != "/planning/de-DE/api/my-day" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		assertJSON(t, req.Body, map[string]any{
			"recipeSource": "VORWERK",
			"recipeIds":    []string{"r907015"},
			"dayKey":       "2024-03-04",
		})
		if c := req.Header.Get("Cookie"); c != "_oauth2_proxy=proxy-token; v-authenticated=true" {
			t.Errorf("unexpected cookie header %q", c)
		}
		if !strings.HasSuffix(req.Header.Get("Referer"), "/planning/de-DE/my-week") {
			t.Errorf("unexpected referer %q", req.Header.Get("Referer"))
		}
		if req.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", req.Header.Get("Content-Type"))
		}
	})

	t.Run("DefaultMessage", func(t *testing.T) {
		svc := newTestService(t, &fakeAPI{}, th.AuthedStore(), nil)

		msg, err := svc.AddRecipeToPlan(ctx, "r1", "2024-03-04")
		if err != nil {
			t.Fatalf("AddRecipeToPlan failed: %v", err)
		}
		if msg != "recipe added" {
			t.Errorf("expected fallback message, got %q", msg)
		}
	})

	t.Run("InvalidDate", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		if _, err := svc.AddRecipeToPlan(ctx, "r1", "04.03.2024"); !errors.Is(err, shared.ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
		if _, err := svc.RemoveRecipeFromPlan(ctx, "r1", "tomorrow"); !errors.Is(err, shared.ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
		if len(api.requests) != 0 {
			t.Errorf("expected no requests, got %d", len(api.requests))
		}
	})

	t.Run("RemoveRecipeFromPlan", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		if _, err := svc.RemoveRecipeFromPlan(ctx, "r1", "2024-03-04"); err != nil {
			t.Fatalf("RemoveRecipeFromPlan failed: %v", err)
		}

		req := api.last(t)
		if req.Method != http.MethodDelete || req.Path != "/planning/de-DE/api/my-day/2024-03-04/recipes/r1" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		if req.Query != "recipeSource=VORWERK" {
			t.Errorf("unexpected query %q", req.Query)
		}
	})

	t.Run("MoveRecipeInPlan", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		msg, err := svc.MoveRecipeInPlan(ctx, "r1", "2024-03-04", "2024-03-06")
		if err != nil {
			t.Fatalf("MoveRecipeInPlan failed: %v", err)
		}
		if msg != "recipe moved from 2024-03-04 to 2024-03-06" {
			t.Errorf("unexpected message %q", msg)
		}
		if len(api.requests) != 2 || api.requests[0].Method != http.MethodDelete || api.requests[1].Method != http.MethodPut {
			t.Fatalf("expected DELETE then PUT, got %+v", api.requests)
		}
		if !strings.Contains(api.requests[1].Body, `"dayKey":"2024-03-06"`) {
			t.Errorf("expected add on target date, got %s", api.requests[1].Body)
		}
	})

	t.Run("MoveFailures", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("DELETE /planning/de-DE/api/my-day/2024-03-04/recipes/r1", http.StatusInternalServerError, "")
		svc := newTestService(t, api, th.AuthedStore(), nil)

		_, err := svc.MoveRecipeInPlan(ctx, "r1", "2024-03-04", "2024-03-06")
		if err == nil || !strings.Contains(err.Error(), "remove failed") {
			t.Fatalf("expected remove failure, got %v", err)
		}
		if len(api.requests) != 1 {
			t.Errorf("add must not run after a failed remove, got %d requests", len(api.requests))
		}

		api = &fakeAPI{}
		api.on("PUT /planning/de-DE/api/my-day", http.StatusBadRequest, "")
		svc = newTestService(t, api, th.AuthedStore(), nil)

		_, err = svc.MoveRecipeInPlan(ctx, "r1", "2024-03-04", "2024-03-06")
		if err == nil || !strings.Contains(err.Error(), "add failed") {
			t.Fatalf("expected add failure, got %v", err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest in chain, got %v", err)
		}
	})

	t.Run("SessionRejected", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			api := &fakeAPI{}
			api.on("PUT /planning/de-DE/api/my-day", status, "")
			svc := newTestService(t, api, th.AuthedStore(), nil)

			if _, err := svc.AddRecipeToPlan(ctx, "r1", "2024-03-04"); !errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("HTTP %d: expected ErrSessionExpired, got %v", status, err)
			}
		}
	})
}

func TestCookidooServiceShopping(t *testing.T) {
	ctx := context.Background()

	t.Run("ShoppingList", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("GET /shopping/de-DE", http.StatusOK, `{
			"recipes": [{"id": "r1", "title": "Suppe", "recipeIngredientGroups": [
				{"ingredientNotation": "Karotten", "quantity": {"value": 3}, "unitNotation": "Stück", "isOwned": false}
			]}],
			"additionalItems": [{"id": "i1", "name": "Milch", "isOwned": true}]
		}`)
		svc := newTestService(t, api, th.AuthedStore(), nil)

		list, err := svc.ShoppingList(ctx)
		if err != nil {
			t.Fatalf("ShoppingList failed: %v", err)
		}
		if len(list.Recipes) != 1 || list.Recipes[0].Ingredients[0].Name != "Karotten" {
			t.Errorf("unexpected recipes %+v", list.Recipes)
		}
		if list.Recipes[0].Ingredients[0].Quantity.Value != 3 {
			t.Errorf("unexpected quantity %+v", list.Recipes[0].Ingredients[0].Quantity)
		}
		if len(list.AdditionalItems) != 1 || !list.AdditionalItems[0].IsOwned {
			t.Errorf("unexpected items %+v", list.AdditionalItems)
		}
		if accept := api.last(t).Header.Get("Accept"); accept != "application/json" {
			t.Errorf("expected JSON accept header, got %q", accept)
		}
	})

	t.Run("ShoppingListInvalidJSON", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("GET /shopping/de-DE", http.StatusOK, "<html>")
		svc := newTestService(t, api, th.AuthedStore(), nil)

		if _, err := svc.ShoppingList(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("AddRecipes", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		msg, err := svc.AddRecipesToShoppingList(ctx, []string{"r1", "r2"})
		if err != nil {
			t.Fatalf("AddRecipesToShoppingList failed: %v", err)
		}
		if msg != "2 recipe(s) added" {
			t.Errorf("unexpected message %q", msg)
		}

		req := api.last(t)
		if req.Method != http.MethodPost || req.Path != "/shopping/de-DE/add-recipes" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		assertJSON(t, req.Body, map[string]any{"recipeIDs": []string{"r1", "r2"}})
		if req.Header.Get("Origin") == "" {
			t.Error("expected Origin header")
		}

		if _, err := svc.AddRecipesToShoppingList(ctx, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("AddItem", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		msg, err := svc.AddShoppingItem(ctx, "Milch")
		if err != nil {
			t.Fatalf("AddShoppingItem failed: %v", err)
		}
		if msg != `"Milch" added` {
			t.Errorf("unexpected message %q", msg)
		}

		req := api.last(t)
		if req.Method != http.MethodPost || req.Path != "/shopping/de-DE/additional-item" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		assertJSON(t, req.Body, map[string]string{"itemValue": "Milch"})

		if _, err := svc.AddShoppingItem(ctx, "  "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("RemoveRecipe", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		if _, err := svc.RemoveRecipeFromShoppingList(ctx, "r1"); err != nil {
			t.Fatalf("RemoveRecipeFromShoppingList failed: %v", err)
		}

		req := api.last(t)
		if req.Method != http.MethodDelete || req.Path != "/shopping/de-DE/recipe/r1/remove" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		if req.Body != "{}" {
			t.Errorf("expected empty JSON object body, got %q", req.Body)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		msg, err := svc.ClearShoppingList(ctx)
		if err != nil {
			t.Fatalf("ClearShoppingList failed: %v", err)
		}
		if msg != "shopping list cleared" {
			t.Errorf("unexpected message %q", msg)
		}

		req := api.last(t)
		if req.Method != http.MethodDelete || req.Path != "/shopping/de-DE" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
	})

	t.Run("AddPlan", func(t *testing.T) {
		snap := &models.WeekplanSnapshot{SinceDate: "2024-03-04", Weekplan: models.Weekplan{Days: []models.DayRecord{
			{Date: "2024-03-04", Recipes: []models.RecipeRecord{{ID: "yesterday"}}},
			{Date: testToday, Recipes: []models.RecipeRecord{{ID: "a"}, {ID: "b"}}},
			{Date: "2024-03-06", Recipes: []models.RecipeRecord{{ID: "a"}, {ID: "c"}}},
			{Date: "2024-03-07", Recipes: []models.RecipeRecord{{ID: "later"}}},
		}}}

		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		ids, _, err := svc.AddPlanToShoppingList(ctx, snap, 2)
		if err != nil {
			t.Fatalf("AddPlanToShoppingList failed: %v", err)
		}
		if want := []string{"a", "b", "c"}; !slices.Equal(ids, want) {
			t.Errorf("expected ids %v, got %v", want, ids)
		}
		assertJSON(t, api.last(t).Body, map[string]any{"recipeIDs": []string{"a", "b", "c"}})
	})

	t.Run("AddPlanNothingPlanned", func(t *testing.T) {
		snap := &models.WeekplanSnapshot{SinceDate: "2024-01-01", Weekplan: models.Weekplan{Days: []models.DayRecord{
			{Date: "2024-01-01", Recipes: []models.RecipeRecord{{ID: "old"}}},
		}}}

		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		ids, msg, err := svc.AddPlanToShoppingList(ctx, snap, 7)
		if err != nil || ids != nil || msg != "" {
			t.Errorf("expected nothing to add, got %v %q %v", ids, msg, err)
		}
		if len(api.requests) != 0 {
			t.Errorf("expected no requests, got %d", len(api.requests))
		}

		if _, _, err := svc.AddPlanToShoppingList(ctx, snap, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCookidooServiceNotAuthenticated(t *testing.T) {
	ctx := context.Background()
	stores := map[string]session.Store{
		"Empty":          session.NewMemoryStore(),
		"NoAuthCookie":   session.NewMemoryStore(models.Cookie{Name: "other", Value: "x", Domain: "127.0.0.1", Path: "/"}),
		"EmptyAuthValue": session.NewMemoryStore(models.Cookie{Name: "v-authenticated", Value: "", Domain: "127.0.0.1", Path: "/"}),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{}
			svc := newTestService(t, api, store, &memTokens{})

			calls := map[string]func() error{
				"AddRecipeToPlan": func() error { _, err := svc.AddRecipeToPlan(ctx, "r1", "2024-03-04"); return err },
				"RemoveRecipeFromPlan": func() error {
					_, err := svc.RemoveRecipeFromPlan(ctx, "r1", "2024-03-04")
					return err
				},
				"ShoppingList":     func() error { _, err := svc.ShoppingList(ctx); return err },
				"AddShoppingItem":  func() error { _, err := svc.AddShoppingItem(ctx, "Milch"); return err },
				"ClearShopping":    func() error { _, err := svc.ClearShoppingList(ctx); return err },
				"SearchToken":      func() error { _, err := svc.SearchToken(ctx); return err },
				"Search":           func() error { _, err := svc.Search(ctx, "suppe", 5); return err },
				"AddRecipesToList": func() error { _, err := svc.AddRecipesToShoppingList(ctx, []string{"r1"}); return err },
			}

			for op, call := range calls {
				if err := call(); !errors.Is(err, shared.ErrNotAuthenticated) {
					t.Errorf("%s: expected ErrNotAuthenticated, got %v", op, err)
				}
			}
			if len(api.requests) != 0 {
				t.Errorf("expected no network I/O, got %d requests", len(api.requests))
			}
		})
	}
}

func TestCookidooServiceSearch(t *testing.T) {
	ctx := context.Background()
	now := th.Clock(testToday)()
	validToken := func(d time.Duration) string {
		data, _ := json.Marshal(models.SearchToken{APIKey: "key-1", ValidUntil: now.Add(d).Unix()})
		return string(data)
	}

	t.Run("TokenCached", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("GET /search/api/subscription/token", http.StatusOK, validToken(time.Hour))
		tokens := &memTokens{}
		svc := newTestService(t, api, th.AuthedStore(), tokens)

		for range 3 {
			token, err := svc.SearchToken(ctx)
			if err != nil {
				t.Fatalf("SearchToken failed: %v", err)
			}
			if token.APIKey != "key-1" {
				t.Errorf("unexpected key %q", token.APIKey)
			}
		}
		if len(api.requests) != 1 {
			t.Errorf("expected a single token request, got %d", len(api.requests))
		}
		if tokens.puts != 1 {
			t.Errorf("expected token to be cached once, got %d", tokens.puts)
		}
	})

	t.Run("TokenNearExpiry", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("GET /search/api/subscription/token", http.StatusOK, validToken(time.Hour))
		tokens := &memTokens{tokens: map[string]*models.SearchToken{
			"search": {APIKey: "stale", ValidUntil: now.Add(2 * time.Minute).Unix()},
		}}
		svc := newTestService(t, api, th.AuthedStore(), tokens)

		token, err := svc.SearchToken(ctx)
		if err != nil {
			t.Fatalf("SearchToken failed: %v", err)
		}
		if token.APIKey != "key-1" {
			t.Errorf("expected refreshed key, got %q", token.APIKey)
		}
	})

	t.Run("TokenUnavailable", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
		}{
			{"ServerError", http.StatusInternalServerError, ""},
			{"EmptyKey", http.StatusOK, `{"apiKey":""}`},
			{"InvalidJSON", http.StatusOK, "nope"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := &fakeAPI{}
				api.on("GET /search/api/subscription/token", tt.status, tt.body)
				svc := newTestService(t, api, th.AuthedStore(), nil)

				if _, err := svc.Search(ctx, "suppe", 5); !errors.Is(err, shared.ErrSearchUnavailable) {
					t.Fatalf("expected ErrSearchUnavailable, got %v", err)
				}
			})
		}
	})

	t.Run("Query", func(t *testing.T) {
		api := &fakeAPI{}
		api.on("GET /search/api/subscription/token", http.StatusOK, validToken(time.Hour))
		api.on("POST /1/indexes/recipes-production-de/query", http.StatusOK, `{
			"hits": [
				{"id": "r1", "title": "Kürbissuppe", "totalTime": 2700.0, "rating": 4.6, "image": "https://img.test/r1.jpg"},
				{"id": "r2"}
			],
			"nbHits": 120
		}`)
		svc := newTestService(t, api, th.AuthedStore(), nil)

		result, err := svc.Search(ctx, "suppe", 2)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if result.Total != 120 || len(result.Hits) != 2 {
			t.Fatalf("unexpected result %+v", result)
		}

		first := result.Hits[0]
		if first.Title != "Kürbissuppe" || first.TotalTime != 2700 || first.Rating != 4.6 {
			t.Errorf("unexpected hit %+v", first)
		}
		if !strings.HasSuffix(first.URL, "/recipes/recipe/de-DE/r1") {
			t.Errorf("unexpected URL %q", first.URL)
		}
		if result.Hits[1].Title != models.UnknownTitle {
			t.Errorf("expected placeholder title, got %q", result.Hits[1].Title)
		}

		req := api.last(t)
		if req.Header.Get("X-Algolia-Api-Key") != "key-1" || req.Header.Get("X-Algolia-Application-Id") == "" {
			t.Errorf("missing search headers %v", req.Header)
		}
		if req.Header.Get("Cookie") != "" {
			t.Error("session cookies must not be sent to the search host")
		}
		assertJSON(t, req.Body, map[string]any{"query": "suppe", "hitsPerPage": 2})
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		api := &fakeAPI{}
		svc := newTestService(t, api, th.AuthedStore(), nil)

		if _, err := svc.Search(ctx, " ", 5); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
		if len(api.requests) != 0 {
			t.Errorf("expected no requests, got %d", len(api.requests))
		}
	})
}
