package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()

	blobs, err := blobstore.NewFSStore(dir)
	require.NoError(t, err)
	items := itemstore.NewMemoryStore()
	index, err := semanticindex.NewFlatIndex(filepath.Join(dir, "embeddings.gob"))
	require.NoError(t, err)
	embedder := embedding.NewFake(16)
	rules := model.NewExtensionRules(nil, nil)

	return New(blobs, items, index, embedder, nil, rules)
}

func TestIngestTextThenSearchByTitleWordsFindsIt(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	item, err := e.IngestText(ctx, "Remember to review PR #123")
	require.NoError(t, err)
	require.Equal(t, model.KindText, item.Kind)

	results, err := e.Search(ctx, "review pr", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, item.ID, results[0].ID)
}

func TestIngestTextEmptyIsRejected(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.IngestText(context.Background(), "   ")
	require.Error(t, err)
}

func TestIngestLinkClassifiesAsLinks(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	item, err := e.IngestLink(ctx, "https://example.com/docs", "")
	require.NoError(t, err)
	require.Equal(t, model.KindLink, item.Kind)
	require.Equal(t, model.CategoryLinks, item.Category)
	require.Equal(t, "https://example.com/docs", item.Metadata.URL())

	results, err := e.Search(ctx, "example docs", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, item.ID, results[0].ID)
}

func TestIngestFileRejectsDisallowedExtension(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("noise"), 0o644))

	_, err := e.IngestFile(context.Background(), path)
	require.Error(t, err)
}

func TestIngestFileRejectsContentThatContradictsExtension(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	// PK\x03\x04 is the zip local-file-header signature: a .txt whose bytes
	// are actually an archive must be rejected even though its extension
	// alone would pass ClassifyPath.
	zipHeader := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00}
	require.NoError(t, os.WriteFile(path, zipHeader, 0o644))

	_, err := e.IngestFile(context.Background(), path)
	require.Error(t, err)
}

func TestIngestFileTwiceSharesOneBlob(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o644))

	item1, err := e.IngestFile(ctx, path)
	require.NoError(t, err)
	item2, err := e.IngestFile(ctx, path)
	require.NoError(t, err)

	require.NotEqual(t, item1.ID, item2.ID)
	require.Equal(t, *item1.Hash, *item2.Hash)
	require.True(t, e.blobs.Exists(*item1.Hash))
}

func TestDeleteRemovesFromIndexAndStoreAndBlobWhenUnshared(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	item, err := e.IngestFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, item.ID))

	_, err = e.items.Get(ctx, item.ID)
	require.Error(t, err)
	require.False(t, e.index.Has(item.ID))
	require.False(t, e.blobs.Exists(*item.Hash))
}

func TestDeleteKeepsBlobWhenStillReferenced(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("shared"), 0o644))

	item1, err := e.IngestFile(ctx, path)
	require.NoError(t, err)
	item2, err := e.IngestFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, e.Delete(ctx, item1.ID))
	require.True(t, e.blobs.Exists(*item2.Hash))
}

func TestListIncludesDamagedItemsSearchExcludesThem(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	item, err := e.IngestText(ctx, "a damaged record about aardvarks")
	require.NoError(t, err)

	damaged, err := e.items.Update(ctx, item.ID, model.Patch{
		Metadata: model.MarkDamaged(model.Metadata{"source": "text"}),
	})
	require.NoError(t, err)
	require.True(t, damaged.Damaged())

	listed, err := e.List(ctx)
	require.NoError(t, err)
	found := false
	for _, it := range listed {
		if it.ID == item.ID {
			found = true
		}
	}
	require.True(t, found, "list must still show damaged items")

	results, err := e.Search(ctx, "aardvarks", 5)
	require.NoError(t, err)
	for _, r := range results {
		require.NotEqual(t, item.ID, r.ID, "search must omit damaged items")
	}
}

func TestSubscribeReceivesNotificationOnIngest(t *testing.T) {
	e := newTestEngine(t)
	ch := e.Subscribe()

	_, err := e.IngestText(context.Background(), "notify me")
	require.NoError(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("expected a notification after ingest")
	}
}
