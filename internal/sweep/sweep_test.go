package sweep

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
)

func newHarness(t *testing.T) (*Sweeper, blobstore.Store, itemstore.Store, semanticindex.Index) {
	t.Helper()
	dir := t.TempDir()

	blobs, err := blobstore.NewFSStore(dir)
	require.NoError(t, err)
	items := itemstore.NewMemoryStore()
	index, err := semanticindex.NewFlatIndex(filepath.Join(dir, "embeddings.gob"))
	require.NoError(t, err)
	embedder := embedding.NewFake(8)

	s := New(blobs, items, index, embedder, "0 */6 * * *")
	return s, blobs, items, index
}

func TestSweepOrphanBlobsRemovesUnreferenced(t *testing.T) {
	s, blobs, items, _ := newHarness(t)
	ctx := context.Background()

	orphanHash, err := blobs.Put(ctx, strings.NewReader("orphan"), ".txt")
	require.NoError(t, err)
	keepHash, err := blobs.Put(ctx, strings.NewReader("kept"), ".txt")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, items.Insert(ctx, model.Item{
		ID: model.NewID(), Kind: model.KindFile, Category: model.CategoryDocuments,
		Hash: &keepHash, CreatedAt: now, UpdatedAt: now, Metadata: model.Metadata{},
	}))

	removed, err := s.SweepOrphanBlobs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.False(t, blobs.Exists(orphanHash))
	require.True(t, blobs.Exists(keepHash))
}

func TestBackfillEmbeddingsFillsGaps(t *testing.T) {
	s, _, items, index := newHarness(t)
	ctx := context.Background()

	now := time.Now().UTC()
	item := model.Item{
		ID: model.NewID(), Kind: model.KindText, Category: model.CategoryNotes,
		Title: "a note without an embedding", CreatedAt: now, UpdatedAt: now,
		Metadata: model.Metadata{}, SearchableText: "a note without an embedding",
	}
	require.NoError(t, items.Insert(ctx, item))
	require.False(t, index.Has(item.ID))

	backfilled, err := s.BackfillEmbeddings(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, backfilled)
	require.True(t, index.Has(item.ID))

	// A second pass backfills nothing further.
	backfilled, err = s.BackfillEmbeddings(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, backfilled)
}

func TestBackfillEmbeddingsSkipsDamagedItems(t *testing.T) {
	s, _, items, index := newHarness(t)
	ctx := context.Background()

	now := time.Now().UTC()
	item := model.Item{
		ID: model.NewID(), Kind: model.KindText, Category: model.CategoryNotes,
		Title: "damaged", CreatedAt: now, UpdatedAt: now,
		Metadata: model.MarkDamaged(model.Metadata{}), SearchableText: "damaged",
	}
	require.NoError(t, items.Insert(ctx, item))

	backfilled, err := s.BackfillEmbeddings(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, backfilled)
	require.False(t, index.Has(item.ID))
}
