// Package engine wires the content store, item index, semantic index, and
// enrichment pipeline together behind the entry points the overlay
// controller and any other UI collaborator call: ingest_text, ingest_link,
// ingest_file, search, delete, and list. A successful ingest_* return
// implies the item is durable in the content store and item index, and
// that an initial embedding exists in the semantic index on a best-effort
// basis: if the embedding function fails or is unavailable, ingest still
// succeeds. Enrichment is enqueued but never awaited on this path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/enrichment"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// notifyQueueCapacity bounds each items_updated subscriber's channel. A slow
// subscriber drops notifications rather than stalling item writers, the
// same non-blocking policy the enrichment queue uses.
const notifyQueueCapacity = 32

// Engine is the top-level orchestrator. It holds no state of its own beyond
// the subscriber registry; every durable fact lives in the content store,
// item index, or semantic index.
type Engine struct {
	blobs    blobstore.Store
	items    itemstore.Store
	index    semanticindex.Index
	embedder embedding.Embedder
	pipeline *enrichment.Pipeline
	rules    model.ExtensionRules

	subsMu sync.Mutex
	subs   []chan struct{}
}

// New builds an Engine over already-constructed components. pipeline may be
// nil in tests that don't exercise enrichment; Enqueue is then a no-op.
func New(blobs blobstore.Store, items itemstore.Store, index semanticindex.Index, embedder embedding.Embedder, pipeline *enrichment.Pipeline, rules model.ExtensionRules) *Engine {
	return &Engine{
		blobs:    blobs,
		items:    items,
		index:    index,
		embedder: embedder,
		pipeline: pipeline,
		rules:    rules,
	}
}

// Subscribe registers a new items_updated listener. The returned channel
// receives an empty struct after every successful ingest/delete; callers
// should drain it promptly since sends are non-blocking and drop when the
// channel is full.
func (e *Engine) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, notifyQueueCapacity)
	e.subsMu.Lock()
	e.subs = append(e.subs, ch)
	e.subsMu.Unlock()
	return ch
}

func (e *Engine) notify() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (e *Engine) enqueueEnrichment(itemID string) {
	if e.pipeline != nil {
		e.pipeline.Enqueue(itemID)
	}
}

// embedBestEffort computes and upserts an initial embedding. Failure here
// never fails ingest: the item is simply invisible to semantic search
// until enrichment or a sweep backfills it.
func (e *Engine) embedBestEffort(ctx context.Context, item model.Item) {
	vector, err := e.embedder.Embed(ctx, item.SearchableText)
	if err != nil {
		vaultlog.Log.WithError(err).WithField("item_id", item.ID).Debug("ingest: initial embedding unavailable")
		return
	}
	if err := e.index.Upsert(ctx, item.ID, vector, item.CreatedAt); err != nil {
		vaultlog.Log.WithError(err).WithField("item_id", item.ID).Warn("ingest: initial embedding upsert failed")
	}
}

// IngestText stores a typed or pasted non-link capture.
func (e *Engine) IngestText(ctx context.Context, text string) (model.Item, error) {
	if strings.TrimSpace(text) == "" {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrInvalidInput, errors.New("empty text"))
	}

	now := time.Now().UTC()
	item := model.Item{
		ID:        model.NewID(),
		Kind:      model.KindText,
		Category:  model.ClassifyText(text),
		Title:     deriveTitle(text),
		Content:   &text,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  model.Metadata{"source": "text"},
	}
	item.SearchableText = model.SearchableText(item)

	if err := e.items.Insert(ctx, item); err != nil {
		return model.Item{}, err
	}
	e.embedBestEffort(ctx, item)
	e.enqueueEnrichment(item.ID)
	e.notify()
	return item, nil
}

// IngestLink stores a pasted/typed URL.
func (e *Engine) IngestLink(ctx context.Context, url, title string) (model.Item, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrInvalidInput, errors.New("empty url"))
	}

	now := time.Now().UTC()
	displayTitle := title
	if displayTitle == "" {
		displayTitle = url
	}
	md := model.Metadata{"source": "link", "url": url}
	if title != "" {
		md["page_title"] = title
	}
	item := model.Item{
		ID:        model.NewID(),
		Kind:      model.KindLink,
		Category:  model.CategoryLinks,
		Title:     displayTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  md,
	}
	item.SearchableText = model.SearchableText(item)

	if err := e.items.Insert(ctx, item); err != nil {
		return model.Item{}, err
	}
	e.embedBestEffort(ctx, item)
	e.enqueueEnrichment(item.ID)
	e.notify()
	return item, nil
}

// IngestFile stores a dropped file. It re-derives the category from the
// path independently of whatever validation the controller already
// performed, as defense in depth against a caller that skipped or got the
// check wrong.
func (e *Engine) IngestFile(ctx context.Context, path string) (model.Item, error) {
	category, ok, reason := e.rules.ClassifyPath(path)
	if !ok {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrFileRejected, errors.New(reason))
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}

	header := make([]byte, 512)
	n, _ := f.Read(header)
	header = header[:n]
	if err := sniffContradiction(header, category); err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrFileRejected, err)
	}
	mimeType := sniffMime(header)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return model.Item{}, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}

	hash, err := e.blobs.Put(ctx, f, filepath.Ext(path))
	if err != nil {
		return model.Item{}, err
	}

	kind := model.KindFile
	if category == model.CategoryImages {
		kind = model.KindImage
	}

	now := time.Now().UTC()
	filename := filepath.Base(path)
	item := model.Item{
		ID:        model.NewID(),
		Kind:      kind,
		Category:  category,
		Title:     filename,
		BlobRef:   &hash,
		Hash:      &hash,
		MimeType:  mimeType,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: model.Metadata{
			"source":     "file",
			"filename":   filename,
			"size_bytes": fmt.Sprintf("%d", info.Size()),
		},
	}
	item.SearchableText = model.SearchableText(item)

	if err := e.items.Insert(ctx, item); err != nil {
		return model.Item{}, err
	}
	e.embedBestEffort(ctx, item)
	e.enqueueEnrichment(item.ID)
	e.notify()
	return item, nil
}

// sniffMime identifies content type from magic bytes, falling back to
// http.DetectContentType, the same two-step probe the enrichment
// pipeline's MIME stage uses, run here a second time at ingest so the
// stored mime_type doesn't depend solely on the dropped file's extension.
func sniffMime(header []byte) string {
	if kind, err := filetype.Match(header); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if len(header) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(header)
}

// sniffContradiction rejects a file whose magic bytes plainly belong to a
// rejected class (archive, audio) even though its extension passed
// ClassifyPath. It never rejects on an inconclusive sniff.
func sniffContradiction(header []byte, category model.Category) error {
	if filetype.IsArchive(header) {
		return fmt.Errorf("this file's contents look like an archive, not %s", category)
	}
	if filetype.IsAudio(header) {
		return fmt.Errorf("this file's contents look like audio, not %s", category)
	}
	return nil
}

// deriveTitle picks a short display title from free-form text: its first
// line, truncated.
func deriveTitle(text string) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	const maxLen = 80
	if len(line) > maxLen {
		line = strings.TrimSpace(line[:maxLen])
	}
	if line == "" {
		line = "untitled"
	}
	return line
}

// Delete removes an item from the item index and semantic index, and from
// the content store too if no other item shares its blob.
func (e *Engine) Delete(ctx context.Context, id string) error {
	item, err := e.items.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.items.Delete(ctx, id); err != nil {
		return err
	}
	if err := e.index.Remove(ctx, id); err != nil {
		vaultlog.Log.WithError(err).WithField("item_id", id).Warn("delete: semantic index removal failed")
	}
	if item.Hash != nil {
		count, err := e.items.CountReferences(ctx, *item.Hash)
		if err != nil {
			vaultlog.Log.WithError(err).WithField("hash", *item.Hash).Warn("delete: reference count failed")
		} else if count == 0 {
			if err := e.blobs.Remove(ctx, *item.Hash); err != nil {
				vaultlog.Log.WithError(err).WithField("hash", *item.Hash).Warn("delete: blob removal failed")
			}
		}
	}
	e.notify()
	return nil
}

// List returns every item, including damaged ones; only Search omits them.
func (e *Engine) List(ctx context.Context) ([]model.Item, error) {
	return e.items.List(ctx)
}
