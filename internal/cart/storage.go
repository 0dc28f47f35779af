package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tryon-storefront/internal/domain"
)

// MemoryStorage is an in-process Storage, used in tests and as the default
// when no durable backend is configured.
type MemoryStorage struct {
	mu    sync.Mutex
	items []domain.CartLineItem
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() ([]domain.CartLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CartLineItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *MemoryStorage) Save(items []domain.CartLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make([]domain.CartLineItem, len(items))
	copy(m.items, items)
	return nil
}

// FileStorage persists the ledger as a JSON array in a single file, the
// durable local-storage analogue. Writes go through a temp file and rename so
// a crash mid-write never truncates the ledger.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() ([]domain.CartLineItem, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.CartLineItem{}, nil
		}
		return nil, fmt.Errorf("cart: failed to read ledger file: %w", err)
	}
	if len(data) == 0 {
		return []domain.CartLineItem{}, nil
	}
	var items []domain.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("cart: failed to decode ledger file: %w", err)
	}
	return items, nil
}

func (f *FileStorage) Save(items []domain.CartLineItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart: failed to encode ledger: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("cart: failed to create ledger directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cart: failed to write ledger file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("cart: failed to replace ledger file: %w", err)
	}
	return nil
}
