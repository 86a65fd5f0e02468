// Package models defines domain entities and persistence interfaces for the tmx Cookidoo client.
//
// The package contains three categories of types:
//
// 1. Session state
//   - [Cookie] : one persisted browser cookie, in the cookie file format
//
// 2. Weekplan data, produced by a sync and replayed locally
//   - [WeekplanSnapshot] : the merged, date-bounded result of one sync
//   - [DayRecord] : one calendar day of the plan
//   - [RecipeRecord] : one planned recipe
//   - [SnapshotRecord] : a snapshot persisted in the history database
//
// 3. Service payloads
//   - [SearchToken], [SearchHit] : recipe search
//   - [ShoppingList], [Ingredient] : the remote shopping list and its aggregated lines
//
// Persistent entities implement the [Model] interface.
package models
