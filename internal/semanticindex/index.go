// Package semanticindex stores one embedding vector per item and answers
// "k most similar items" by cosine similarity. FlatIndex keeps every
// vector in a flat map scanned linearly, which is simple and fast enough
// at the item counts a single local vault accumulates.
package semanticindex

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
)

// Result is a single hit from Query, ordered by descending similarity.
type Result struct {
	ItemID     string
	Similarity float64
}

// Index is the Semantic Index contract.
type Index interface {
	Upsert(ctx context.Context, itemID string, vector []float32, createdAt time.Time) error
	Remove(ctx context.Context, itemID string) error
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)
	Size() int
	Has(itemID string) bool
}

type entry struct {
	Vector    []float32
	CreatedAt time.Time
}

// FlatIndex is the durable, linear-scan Index. State is persisted to a
// single gob file on every mutation, simpler than a WAL for a
// single-writer local vault.
type FlatIndex struct {
	mu      sync.RWMutex
	path    string
	dim     int
	entries map[string]entry
}

type onDiskFormat struct {
	Dim     int
	Entries map[string]entry
}

// NewFlatIndex loads path (vault/embeddings.gob) if it exists, or starts
// empty.
func NewFlatIndex(path string) (*FlatIndex, error) {
	idx := &FlatIndex{path: path, entries: make(map[string]entry)}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	defer f.Close()

	var onDisk onDiskFormat
	if err := gob.NewDecoder(f).Decode(&onDisk); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrCorruption, err)
	}
	idx.dim = onDisk.Dim
	if onDisk.Entries != nil {
		idx.entries = onDisk.Entries
	}
	return idx, nil
}

// persist rewrites the on-disk file. Caller must hold s.mu.
func (s *FlatIndex) persist() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-embeddings-*")
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	tmpPath := tmp.Name()
	if err := gob.NewEncoder(tmp).Encode(onDiskFormat{Dim: s.dim, Entries: s.entries}); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return nil
}

func (s *FlatIndex) Upsert(ctx context.Context, itemID string, vector []float32, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(vector)
	} else if len(vector) != s.dim {
		return vaulterr.Wrap(vaulterr.ErrInvalidInput,
			fmt.Errorf("dimension_mismatch: want %d, got %d", s.dim, len(vector)))
	}

	cp := make([]float32, len(vector))
	copy(cp, vector)
	s.entries[itemID] = entry{Vector: cp, CreatedAt: createdAt}
	return s.persist()
}

func (s *FlatIndex) Remove(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[itemID]; !ok {
		return nil
	}
	delete(s.entries, itemID)
	return s.persist()
}

func (s *FlatIndex) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = 10
	}
	if len(s.entries) == 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, vaulterr.Wrap(vaulterr.ErrInvalidInput,
			fmt.Errorf("dimension_mismatch: want %d, got %d", s.dim, len(vector)))
	}

	type scored struct {
		id        string
		score     float64
		createdAt time.Time
	}
	all := make([]scored, 0, len(s.entries))
	for id, e := range s.entries {
		all = append(all, scored{id: id, score: cosine(vector, e.Vector), createdAt: e.CreatedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		if !all[i].createdAt.Equal(all[j].createdAt) {
			return all[i].createdAt.After(all[j].createdAt)
		}
		return all[i].id < all[j].id
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]Result, len(all))
	for i, a := range all {
		out[i] = Result{ItemID: a.id, Similarity: a.score}
	}
	return out, nil
}

func (s *FlatIndex) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Has reports whether itemID already has a vector stored, used by the
// background embedding-backfill sweep to find items that somehow have
// none (e.g. restored from an older vault).
func (s *FlatIndex) Has(itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[itemID]
	return ok
}

// cosine computes cosine similarity. Embeddings are expected to already be
// L2-normalised at production time, making this equivalent to a dot
// product, but we normalise defensively so a non-conforming embedder can't
// corrupt ranking.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		na += float64(x) * float64(x)
	}
	for _, x := range b {
		nb += float64(x) * float64(x)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ Index = (*FlatIndex)(nil)
