package models

import (
	"net/http"
	"testing"
	"time"
)

func TestCookie(t *testing.T) {
	t.Run("CookieFromHTTP defaults domain and expiry", func(t *testing.T) {
		c := CookieFromHTTP(&http.Cookie{Name: "v-authenticated", Value: "1"}, "cookidoo.de")
		if c.Domain != "cookidoo.de" || c.Path != "/" {
			t.Errorf("unexpected scope %s%s", c.Domain, c.Path)
		}
		if !c.Session || c.Expires != NoExpiry {
			t.Errorf("expected session cookie, got session=%v expires=%d", c.Session, c.Expires)
		}
	})

	t.Run("CookieFromHTTP keeps expiry", func(t *testing.T) {
		exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		c := CookieFromHTTP(&http.Cookie{Name: "a", Value: "b", Domain: ".cookidoo.de", Expires: exp, Secure: true}, "x")
		if c.Session || c.Expires != exp.Unix() || !c.Secure {
			t.Errorf("unexpected cookie %+v", c)
		}
		if c.HTTP().Expires.Unix() != exp.Unix() {
			t.Errorf("expiry lost converting back: %v", c.HTTP().Expires)
		}
	})

	t.Run("MatchesDomain", func(t *testing.T) {
		tt := []struct {
			domain string
			want   bool
		}{
			{"cookidoo.de", true},
			{".cookidoo.de", true},
			{"www.cookidoo.de", true},
			{"notcookidoo.de", false},
			{"eu.login.vorwerk.com", false},
			{"", false},
		}
		for _, tc := range tt {
			c := Cookie{Name: "n", Value: "v", Domain: tc.domain}
			if got := c.MatchesDomain("cookidoo.de"); got != tc.want {
				t.Errorf("MatchesDomain(%q) = %v, want %v", tc.domain, got, tc.want)
			}
		}
	})

	t.Run("Expired", func(t *testing.T) {
		now := time.Now()
		if (Cookie{Session: true, Expires: NoExpiry}).Expired(now) {
			t.Error("session cookies never expire")
		}
		if !(Cookie{Expires: now.Add(-time.Hour).Unix()}).Expired(now) {
			t.Error("cookie in the past should be expired")
		}
	})
}

func TestWeekplanSnapshot(t *testing.T) {
	snap := &WeekplanSnapshot{
		Timestamp: "2024-01-01T08:00:00Z",
		SinceDate: "2024-01-01",
		Weekplan: Weekplan{Days: []DayRecord{
			{Date: "2024-01-01", Recipes: []RecipeRecord{{ID: "r1"}, {ID: "r2"}}},
			{Date: "2024-01-02", Recipes: []RecipeRecord{{ID: "r1"}}},
			{Date: "2024-01-03", Recipes: []RecipeRecord{{ID: "r3"}}},
		}},
	}

	t.Run("RecipeIDsBetween dedupes and bounds", func(t *testing.T) {
		ids := snap.RecipeIDsBetween("2024-01-01", "2024-01-03")
		if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
			t.Errorf("unexpected ids %v", ids)
		}
	})

	t.Run("RecipeCount", func(t *testing.T) {
		if snap.RecipeCount() != 4 {
			t.Errorf("expected 4 recipes, got %d", snap.RecipeCount())
		}
	})

	t.Run("GeneratedAt", func(t *testing.T) {
		if snap.GeneratedAt().Hour() != 8 {
			t.Errorf("unexpected generated at %v", snap.GeneratedAt())
		}
	})

	t.Run("Day", func(t *testing.T) {
		if _, ok := snap.Day("2024-01-02"); !ok {
			t.Error("expected day to be found")
		}
		if _, ok := snap.Day("2024-02-02"); ok {
			t.Error("unexpected day")
		}
	})

	t.Run("Validate rejects unordered days", func(t *testing.T) {
		bad := &WeekplanSnapshot{SinceDate: "2024-01-01", Weekplan: Weekplan{Days: []DayRecord{{Date: "2024-01-02"}, {Date: "2024-01-01"}}}}
		if err := NewSnapshotRecord(bad).Validate(); err == nil {
			t.Error("expected validation error")
		}
		if err := NewSnapshotRecord(snap).Validate(); err != nil {
			t.Errorf("unexpected error %v", err)
		}
	})
}

func TestShoppingList(t *testing.T) {
	list := &ShoppingList{
		Recipes: []ShoppingRecipe{
			{ID: "r1", Title: "Soup", Ingredients: []ShoppingIngredient{
				{Name: "Zwiebel", Quantity: Quantity{Value: 1}, Unit: "Stück"},
				{Name: "Wasser", Quantity: Quantity{Value: 500}, Unit: "g"},
			}},
			{ID: "r2", Ingredients: []ShoppingIngredient{
				{Name: "Zwiebel", Quantity: Quantity{Value: 0.5}, Unit: "Stück"},
				{Name: "Zwiebel", Quantity: Quantity{Value: 20}, Unit: "g", IsOwned: true},
			}},
		},
		AdditionalItems: []AdditionalItem{{Name: "Kaffee"}},
	}

	t.Run("Aggregate sums by name and unit", func(t *testing.T) {
		lines := list.Aggregate()
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %d: %+v", len(lines), lines)
		}
		onion := lines[0]
		if onion.Quantity != 1.5 || len(onion.Recipes) != 2 || onion.Recipes[1] != UnknownTitle {
			t.Errorf("unexpected onion line %+v", onion)
		}
		if lines[2].Unit != "g" || !lines[2].IsOwned {
			t.Errorf("different unit should stay separate, got %+v", lines[2])
		}
		manual := lines[3]
		if !manual.Manual() || manual.Quantity != 1 || manual.Recipes[0] != ManualRecipeLabel {
			t.Errorf("unexpected manual line %+v", manual)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		var nilList *ShoppingList
		if !nilList.Empty() || !(&ShoppingList{}).Empty() {
			t.Error("expected empty lists")
		}
		if list.Empty() {
			t.Error("expected non-empty list")
		}
		if nilList.Aggregate() != nil {
			t.Error("nil list should aggregate to nil")
		}
	})

	t.Run("SearchToken validity", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		token := &SearchToken{APIKey: "k", ValidUntil: now.Add(10 * time.Minute).Unix()}
		if !token.ValidFor(now, 5*time.Minute) {
			t.Error("token should be valid")
		}
		if token.ValidFor(now, 15*time.Minute) {
			t.Error("token should expire within margin")
		}
		var missing *SearchToken
		if missing.ValidFor(now, 0) {
			t.Error("nil token is never valid")
		}
	})
}
