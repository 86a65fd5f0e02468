package session

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

// FileStore keeps cookies in a JSON file as an array of cookie records.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] backed by the file at path. The file is created on the first Replace.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the cookie file. A missing file yields no cookies; entries without a name or value are dropped.
func (s *FileStore) Load() ([]models.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []models.Cookie{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	var cookies []models.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("%w: cookie file %s: %v", shared.ErrInvalidInput, s.path, err)
	}

	return slices.DeleteFunc(cookies, func(c models.Cookie) bool { return !c.Valid() }), nil
}

// Replace atomically writes cookies to the file with owner-only permissions.
func (s *FileStore) Replace(cookies []models.Cookie) error {
	if cookies == nil {
		cookies = []models.Cookie{}
	}
	if err := shared.WriteJSONFile(s.path, cookies, 0600); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}

// Clear deletes the cookie file.
func (s *FileStore) Clear() error {
	_, err := shared.RemoveIfExists(s.path)
	return err
}

// MemoryStore keeps cookies in memory.
type MemoryStore struct {
	mu       sync.Mutex
	cookies  []models.Cookie
	Replaced int // number of Replace calls
}

// NewMemoryStore creates a [MemoryStore] seeded with cookies.
func NewMemoryStore(cookies ...models.Cookie) *MemoryStore {
	return &MemoryStore{cookies: slices.Clone(cookies)}
}

func (s *MemoryStore) Load() ([]models.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.DeleteFunc(slices.Clone(s.cookies), func(c models.Cookie) bool { return !c.Valid() }), nil
}

func (s *MemoryStore) Replace(cookies []models.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = slices.Clone(cookies)
	s.Replaced++
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	return nil
}
