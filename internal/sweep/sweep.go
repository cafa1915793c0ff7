// Package sweep runs the two background maintenance jobs the engine needs
// beyond per-item enrichment: reclaiming orphaned blobs that no item
// references any longer, and backfilling embeddings for items that
// somehow have none (e.g. restored from an older vault, or left behind by
// a crash between ingest's initial embedding write and the index upsert).
// Scheduling is driven by github.com/adhocore/gronx, evaluated against a
// cron expression from config.Config.SweepCron.
package sweep

import (
	"context"
	"time"

	"github.com/adhocore/gronx"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// pollInterval is how often the scheduler checks cron due-ness. Cron
// expressions are minute-granular, so this is far finer than needed but
// keeps shutdown latency low.
const pollInterval = 30 * time.Second

// Sweeper owns the orphan-blob reclaim job and the embedding-backfill job.
type Sweeper struct {
	blobs    blobstore.Store
	items    itemstore.Store
	index    semanticindex.Index
	embedder embedding.Embedder

	cronExpr string
	gron     gronx.Gronx
	lastRun  time.Time
}

// New builds a Sweeper. cronExpr follows standard five-field cron syntax
// (config.Config.SweepCron, default "0 */6 * * *": every six hours).
func New(blobs blobstore.Store, items itemstore.Store, index semanticindex.Index, embedder embedding.Embedder, cronExpr string) *Sweeper {
	return &Sweeper{
		blobs:    blobs,
		items:    items,
		index:    index,
		embedder: embedder,
		cronExpr: cronExpr,
		gron:     gronx.New(),
	}
}

// Run blocks, polling for the next due cron tick and running both jobs at
// each one, until ctx is cancelled. BackfillEmbeddings also runs once
// immediately on entry, independent of the cron schedule, since it repairs
// state that should never wait six hours to be noticed.
func (s *Sweeper) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := s.gron.IsDue(s.cronExpr, now)
			if err != nil {
				vaultlog.Log.WithError(err).Warn("sweep: invalid cron expression, skipping")
				continue
			}
			if due && !now.Truncate(time.Minute).Equal(s.lastRun) {
				s.lastRun = now.Truncate(time.Minute)
				s.runOnce(ctx)
			}
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if n, err := s.SweepOrphanBlobs(ctx); err != nil {
		vaultlog.Log.WithError(err).Warn("sweep: orphan blob reclaim failed")
	} else if n > 0 {
		vaultlog.Log.WithField("count", n).Info("sweep: reclaimed orphan blobs")
	}

	if n, err := s.BackfillEmbeddings(ctx); err != nil {
		vaultlog.Log.WithError(err).Warn("sweep: embedding backfill failed")
	} else if n > 0 {
		vaultlog.Log.WithField("count", n).Info("sweep: backfilled embeddings")
	}
}

// SweepOrphanBlobs removes every blob with zero referencing items. It never
// touches an item record, only the content store, so it is safe to run
// concurrently with ingest/delete.
func (s *Sweeper) SweepOrphanBlobs(ctx context.Context) (int, error) {
	hashes, err := s.blobs.ListHashes(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, hash := range hashes {
		count, err := s.items.CountReferences(ctx, hash)
		if err != nil {
			vaultlog.Log.WithError(err).WithField("hash", hash).Warn("sweep: could not count references")
			continue
		}
		if count > 0 {
			continue
		}
		if err := s.blobs.Remove(ctx, hash); err != nil {
			vaultlog.Log.WithError(err).WithField("hash", hash).Warn("sweep: could not remove orphan blob")
			continue
		}
		removed++
	}
	return removed, nil
}

// BackfillEmbeddings finds items with no vector in the semantic index and
// computes one.
func (s *Sweeper) BackfillEmbeddings(ctx context.Context) (int, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return 0, err
	}

	backfilled := 0
	for _, item := range items {
		if item.Damaged() {
			continue
		}
		text := item.SearchableText
		if text == "" {
			text = model.SearchableText(item)
		}
		if text == "" {
			continue
		}
		if s.index.Has(item.ID) {
			continue
		}
		vector, err := s.embedder.Embed(ctx, text)
		if err != nil {
			vaultlog.Log.WithError(err).WithField("item_id", item.ID).Warn("sweep: backfill embedding failed")
			continue
		}
		if err := s.index.Upsert(ctx, item.ID, vector, item.CreatedAt); err != nil {
			vaultlog.Log.WithError(err).WithField("item_id", item.ID).Warn("sweep: backfill upsert failed")
			continue
		}
		backfilled++
	}
	return backfilled, nil
}
