// Package ui implements an interactive weekplan browser using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [DayListView] : Browse the days of the stored weekplan, today preselected
//  2. [RecipeListView] : Recipes of one day; open, add to the shopping list or remove
//  3. [ConfirmView] : Confirm removing a recipe from the plan
//  4. [SyncView] : Monitor a running sync
//  5. [ResultView] : Outcome of a plan or shopping list change
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Sync progress flows through a channel from the [tasks.SyncEngine], so the program keeps rendering while weeks are fetched.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
