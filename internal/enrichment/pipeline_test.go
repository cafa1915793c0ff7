package enrichment

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
)

func testPNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 100, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "src.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func testHarness(t *testing.T) (*Pipeline, blobstore.Store, itemstore.Store, semanticindex.Index) {
	t.Helper()
	dir := t.TempDir()

	blobs, err := blobstore.NewFSStore(dir)
	require.NoError(t, err)

	items := itemstore.NewMemoryStore()

	index, err := semanticindex.NewFlatIndex(filepath.Join(dir, "embeddings.gob"))
	require.NoError(t, err)

	embedder := embedding.NewFake(16)

	cfg := config.Config{MaxExtractedTextBytes: 1 << 20, MaxPDFBytes: 1 << 20, EnrichWorkers: 1}
	p := New(cfg, blobs, items, index, embedder)
	return p, blobs, items, index
}

func TestThumbnailStageProducesDerivedRef(t *testing.T) {
	p, blobs, items, index := testHarness(t)
	ctx := context.Background()

	png := testPNGBytes(t, 640, 480)
	hash, err := blobs.Put(ctx, bytes.NewReader(png), ".png")
	require.NoError(t, err)

	now := time.Now().UTC()
	item := model.Item{
		ID:        model.NewID(),
		Kind:      model.KindImage,
		Category:  model.CategoryImages,
		Title:     "a test image",
		Hash:      &hash,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  model.Metadata{"filename": "vacation-photo.png"},
	}
	require.NoError(t, items.Insert(ctx, item))

	p.process(ctx, item.ID)

	got, err := items.Get(ctx, item.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.Metadata.ThumbnailRef())
	require.NotEmpty(t, got.Metadata.Caption())
	require.Equal(t, 1, index.Size())
}

func TestCSVStageExtractsText(t *testing.T) {
	p, blobs, items, _ := testHarness(t)
	ctx := context.Background()

	content := "name,age\nalice,30\nbob,40\n"
	hash, err := blobs.Put(ctx, bytes.NewReader([]byte(content)), ".csv")
	require.NoError(t, err)

	now := time.Now().UTC()
	item := model.Item{
		ID:        model.NewID(),
		Kind:      model.KindFile,
		Category:  model.CategoryCSV,
		Title:     "people.csv",
		Hash:      &hash,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  model.Metadata{"filename": "people.csv"},
	}
	require.NoError(t, items.Insert(ctx, item))

	p.process(ctx, item.ID)

	got, err := items.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Contains(t, got.Metadata.ExtractedText(), "alice")
	require.Contains(t, got.SearchableText, "alice")
}

func TestSpreadsheetExtraction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "quarterly revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "120000"))
	require.NoError(t, f.SaveAs(path))

	text, err := extractSpreadsheet(path, 0)
	require.NoError(t, err)
	require.Contains(t, text, "quarterly revenue")
	require.Contains(t, text, "120000")
}

func TestDocumentStagePlainTextExtension(t *testing.T) {
	p, blobs, items, _ := testHarness(t)
	ctx := context.Background()

	content := "Remember: ship the vault before the offsite."
	hash, err := blobs.Put(ctx, bytes.NewReader([]byte(content)), ".txt")
	require.NoError(t, err)

	now := time.Now().UTC()
	item := model.Item{
		ID:        model.NewID(),
		Kind:      model.KindFile,
		Category:  model.CategoryDocuments,
		Title:     "notes.txt",
		Hash:      &hash,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  model.Metadata{"filename": "notes.txt"},
	}
	require.NoError(t, items.Insert(ctx, item))

	p.process(ctx, item.ID)

	got, err := items.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Contains(t, got.Metadata.ExtractedText(), "offsite")
}

func TestProcessMissingItemIsNoOp(t *testing.T) {
	p, _, _, _ := testHarness(t)
	p.process(context.Background(), "does-not-exist")
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	p, _, _, _ := testHarness(t)
	for i := 0; i < queueCapacity; i++ {
		p.Enqueue("filler")
	}
	// one more over capacity must not block
	done := make(chan struct{})
	go func() {
		p.Enqueue("overflow")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestParseLLMResponse(t *testing.T) {
	out := parseLLMResponse("TITLE: Quarterly Plan\nKEYWORDS: revenue, growth\nSUMMARY: A short plan.\n")
	require.Equal(t, "Quarterly Plan", out.Title)
	require.Equal(t, "revenue, growth", out.Keywords)
	require.Equal(t, "A short plan.", out.Summary)
}

func TestDeterministicCaption(t *testing.T) {
	require.Equal(t, "image: vacation photo", deterministicCaption("vacation_photo.png"))
	require.Equal(t, "image", deterministicCaption(""))
}
