package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tmx/internal/models"
)

// TokenRepository caches short-lived API tokens by name.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get returns the token stored under name, or nil when there is none
func (r *TokenRepository) Get(name string) (*models.SearchToken, error) {
	var token models.SearchToken
	err := r.db.QueryRow(`SELECT value, valid_until FROM tokens WHERE name = ?`, name).Scan(&token.APIKey, &token.ValidUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// Put stores token under name, replacing any previous value
func (r *TokenRepository) Put(name string, token *models.SearchToken) error {
	if token == nil || token.APIKey == "" {
		return fmt.Errorf("token value is required")
	}

	query := `
		INSERT INTO tokens (name, value, valid_until, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, valid_until = excluded.valid_until, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, name, token.APIKey, token.ValidUntil, time.Now()); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Delete removes the token stored under name and reports whether one existed
func (r *TokenRepository) Delete(name string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM tokens WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}
