package models

import (
	"slices"
	"time"
)

// SearchToken is the short-lived key for the recipe search backend.
type SearchToken struct {
	APIKey     string `json:"apiKey"`
	ValidUntil int64  `json:"validUntil"` // epoch seconds
}

// ValidFor reports whether the token is still valid margin after now.
func (t *SearchToken) ValidFor(now time.Time, margin time.Duration) bool {
	return t != nil && t.APIKey != "" && t.ValidUntil > now.Add(margin).Unix()
}

// SearchHit is one recipe returned by a search.
type SearchHit struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Image       string  `json:"image,omitempty"`
	TotalTime   int     `json:"totalTime,omitempty"` // seconds
	Rating      float64 `json:"rating,omitempty"`
	Description string  `json:"description,omitempty"`
}

// SearchResult is a page of hits with the total number of matches.
type SearchResult struct {
	Hits  []SearchHit `json:"hits"`
	Total int         `json:"nbHits"`
}

// Quantity wraps the numeric amount of a shopping ingredient.
type Quantity struct {
	Value float64 `json:"value"`
}

// ShoppingIngredient is one ingredient line of a recipe on the shopping list.
type ShoppingIngredient struct {
	Name        string   `json:"ingredientNotation"`
	Quantity    Quantity `json:"quantity"`
	Unit        string   `json:"unitNotation"`
	Preparation string   `json:"preparation,omitempty"`
	IsOwned     bool     `json:"isOwned"`
	Optional    bool     `json:"optional"`
	Category    string   `json:"shoppingCategory_ref,omitempty"`
}

// ShoppingRecipe is a recipe whose ingredients are on the shopping list.
type ShoppingRecipe struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Ingredients []ShoppingIngredient `json:"recipeIngredientGroups"`
}

// DisplayTitle returns the title, or [UnknownTitle] when it is empty.
func (r ShoppingRecipe) DisplayTitle() string {
	if r.Title == "" {
		return UnknownTitle
	}
	return r.Title
}

// AdditionalItem is an entry added to the shopping list by hand.
type AdditionalItem struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	IsOwned bool   `json:"isOwned"`
}

// ShoppingList is the remote shopping list.
type ShoppingList struct {
	Recipes         []ShoppingRecipe `json:"recipes"`
	AdditionalItems []AdditionalItem `json:"additionalItems"`
}

// Empty reports whether the list has neither recipes nor manual items.
func (l *ShoppingList) Empty() bool {
	return l == nil || (len(l.Recipes) == 0 && len(l.AdditionalItems) == 0)
}

// Ingredient is one aggregated shopping line.
type Ingredient struct {
	Name        string   `json:"name"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	Preparation string   `json:"preparation,omitempty"`
	IsOwned     bool     `json:"isOwned"`
	Optional    bool     `json:"optional"`
	Category    string   `json:"category"`
	Recipes     []string `json:"recipes"`
}

const (
	// ManualCategory is the category given to hand-added items.
	ManualCategory = "manual"
	// ManualRecipeLabel stands in for the recipe title of hand-added items.
	ManualRecipeLabel = "Manually added"
	// UnknownTitle replaces a missing recipe title.
	UnknownTitle = "Unknown"
)

// Aggregate flattens the list into one line per (name, unit), summing quantities and collecting
// the titles of the recipes that need it. Manual items follow with quantity 1.
func (l *ShoppingList) Aggregate() []Ingredient {
	if l == nil {
		return nil
	}

	var lines []Ingredient
	index := make(map[string]int)
	for _, recipe := range l.Recipes {
		title := recipe.DisplayTitle()
		for _, ing := range recipe.Ingredients {
			key := ing.Name + "\x00" + ing.Unit
			if i, ok := index[key]; ok {
				lines[i].Quantity += ing.Quantity.Value
				if !slices.Contains(lines[i].Recipes, title) {
					lines[i].Recipes = append(lines[i].Recipes, title)
				}
				continue
			}

			index[key] = len(lines)
			lines = append(lines, Ingredient{
				Name:        ing.Name,
				Quantity:    ing.Quantity.Value,
				Unit:        ing.Unit,
				Preparation: ing.Preparation,
				IsOwned:     ing.IsOwned,
				Optional:    ing.Optional,
				Category:    ing.Category,
				Recipes:     []string{title},
			})
		}
	}

	for _, item := range l.AdditionalItems {
		lines = append(lines, Ingredient{
			Name:     item.Name,
			Quantity: 1,
			IsOwned:  item.IsOwned,
			Category: ManualCategory,
			Recipes:  []string{ManualRecipeLabel},
		})
	}
	return lines
}

// Manual reports a line that came from a hand-added item.
func (i Ingredient) Manual() bool {
	return i.Category == ManualCategory
}
