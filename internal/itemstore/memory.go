package itemstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
)

// MemoryStore is a non-durable item index, kept alongside SQLiteStore for
// tests that want a Store without touching disk. SQLiteStore is the
// authoritative, durable implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]model.Item
}

// NewMemoryStore returns an empty in-memory Item Index.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]model.Item)}
}

func (s *MemoryStore) Insert(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return vaulterr.Wrap(vaulterr.ErrDuplicateID, fmt.Errorf("item %q already exists", item.ID))
	}
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrNotFound, fmt.Errorf("item %q not found", id))
	}
	return item, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch model.Patch) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrNotFound, fmt.Errorf("item %q not found", id))
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Metadata != nil {
		item.Metadata = model.ApplyMetadata(item.Metadata, patch.Metadata)
	}
	if patch.SearchableText != nil {
		item.SearchableText = *patch.SearchableText
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[id] = item
	return item, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) CountReferences(ctx context.Context, hash string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, item := range s.items {
		if item.Hash != nil && *item.Hash == hash {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
