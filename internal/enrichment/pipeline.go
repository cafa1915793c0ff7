// Package enrichment runs a background worker pool that extracts
// derivable facts from stored blobs and refreshes embeddings, never on the
// critical path of ingest or search.
package enrichment

import (
	"context"
	"runtime"
	"sync"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// queueCapacity bounds the enrichment FIFO queue.
const queueCapacity = 1024

// Pipeline runs the per-item enrichment stages on a bounded worker pool.
type Pipeline struct {
	blobs    blobstore.Store
	items    itemstore.Store
	index    semanticindex.Index
	embedder embedding.Embedder
	ocr      OCR
	frames   FrameExtractor
	llm      LLMEnricher

	maxTextBytes int
	maxPDFBytes  int
	workers      int

	queue chan string
	wg    sync.WaitGroup
}

// New builds a Pipeline wired to the engine's stores and indexes. Workers
// defaults to runtime.NumCPU() when cfg.EnrichWorkers is 0.
func New(cfg config.Config, blobs blobstore.Store, items itemstore.Store, index semanticindex.Index, embedder embedding.Embedder) *Pipeline {
	workers := cfg.EnrichWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var ocr OCR = noOCR{}
	var frames FrameExtractor = noFrameExtractor{}
	var llm LLMEnricher = disabledLLM{}
	if cfg.OCREnabled {
		// No bundled OCR engine ships with this module; OCREnabled has no
		// effect here and noOCR stays in place unless SetOCR replaces it.
	}
	if cfg.LLM.Enabled {
		llm = newHTTPLLM(cfg.LLM)
	}

	return &Pipeline{
		blobs:        blobs,
		items:        items,
		index:        index,
		embedder:     embedder,
		ocr:          ocr,
		frames:       frames,
		llm:          llm,
		maxTextBytes: cfg.MaxExtractedTextBytes,
		maxPDFBytes:  cfg.MaxPDFBytes,
		workers:      workers,
		queue:        make(chan string, queueCapacity),
	}
}

// SetOCR overrides the default no-op OCR engine (used by tests and by
// callers that have a real OCR binary to wrap).
func (p *Pipeline) SetOCR(ocr OCR) { p.ocr = ocr }

// SetFrameExtractor overrides the default no-op frame extractor.
func (p *Pipeline) SetFrameExtractor(f FrameExtractor) { p.frames = f }

// Start launches the worker pool. It returns immediately; workers run until
// ctx is cancelled or Stop is called.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, id)
		}
	}
}

// Enqueue schedules itemID for enrichment. It never blocks: if the queue is
// full the task is dropped and logged, since enrichment must never become
// the critical path of ingest. The item keeps whatever embedding ingest
// already wrote.
func (p *Pipeline) Enqueue(itemID string) {
	select {
	case p.queue <- itemID:
	default:
		vaultlog.Log.WithField("item_id", itemID).Warn("enrichment queue full, dropping task")
	}
}

// Stop closes the queue and waits for in-flight workers to drain it.
func (p *Pipeline) Stop() {
	close(p.queue)
	p.wg.Wait()
}

// process runs the full per-item pipeline: pending -> running -> succeeded
// or failed. A missing item (deleted concurrently) is a silent no-op, not
// a failure.
func (p *Pipeline) process(ctx context.Context, itemID string) {
	log := vaultlog.Log.WithField("item_id", itemID)

	item, err := p.items.Get(ctx, itemID)
	if err != nil {
		if vaulterr.KindOf(err) == vaulterr.KindNotFound {
			log.Debug("enrichment skipped: item no longer exists")
			return
		}
		log.WithError(err).Warn("enrichment failed: could not load item")
		return
	}

	stagePatch := p.runStages(ctx, item)

	mergedMetadata := model.ApplyMetadata(item.Metadata, stagePatch)
	rebuilt := item
	rebuilt.Metadata = mergedMetadata
	newSearchable := model.SearchableText(rebuilt)

	updated, err := p.items.Update(ctx, itemID, model.Patch{
		Metadata:       stagePatch,
		SearchableText: &newSearchable,
	})
	if err != nil {
		log.WithError(err).Warn("enrichment failed: could not persist metadata")
		return
	}

	vector, err := p.embedder.Embed(ctx, newSearchable)
	if err != nil {
		log.WithError(err).Warn("enrichment failed: embedding refresh failed")
		return
	}
	if err := p.index.Upsert(ctx, itemID, vector, updated.CreatedAt); err != nil {
		log.WithError(err).Warn("enrichment failed: semantic index upsert failed")
		return
	}

	log.Debug("enrichment succeeded")
}
