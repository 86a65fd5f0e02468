// package services defines the HTTP-facing operations against the Cookidoo web service
//
// Login handshake, weekplan markup, plan, shopping list and search endpoints
package services

import (
	"context"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/session"
)

// Service defines the authenticated operations on the remote plan, shopping list and recipe index.
type Service interface {
	// Session returns the stored cookie set the operations run with.
	Session() (session.Session, error)

	// AddRecipeToPlan plans a recipe on a date (YYYY-MM-DD).
	AddRecipeToPlan(ctx context.Context, id, date string) (string, error)

	// RemoveRecipeFromPlan removes a recipe from a date.
	RemoveRecipeFromPlan(ctx context.Context, id, date string) (string, error)

	// MoveRecipeInPlan removes a recipe from one date and plans it on another.
	MoveRecipeInPlan(ctx context.Context, id, from, to string) (string, error)

	// ShoppingList retrieves the current shopping list.
	ShoppingList(ctx context.Context) (*models.ShoppingList, error)

	// AddRecipesToShoppingList adds the ingredients of recipes to the shopping list.
	AddRecipesToShoppingList(ctx context.Context, ids []string) (string, error)

	// AddPlanToShoppingList adds the recipes planned from today for days days.
	AddPlanToShoppingList(ctx context.Context, snap *models.WeekplanSnapshot, days int) ([]string, string, error)

	// AddShoppingItem adds a free-text item.
	AddShoppingItem(ctx context.Context, name string) (string, error)

	// RemoveRecipeFromShoppingList removes one recipe's ingredients.
	RemoveRecipeFromShoppingList(ctx context.Context, id string) (string, error)

	// ClearShoppingList empties the shopping list.
	ClearShoppingList(ctx context.Context) (string, error)

	// Search queries the recipe index.
	Search(ctx context.Context, query string, limit int) (*models.SearchResult, error)
}

// LoginService exchanges credentials for a stored session.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

var (
	_ Service      = (*CookidooService)(nil)
	_ LoginService = (*Authenticator)(nil)
)
