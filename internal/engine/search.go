package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

const defaultSearchK = 10

// minQueryLen is the shortest query Search will act on. Shorter queries
// return no results without calling the embedding function at all, since a
// one-character fragment matches far too broadly to be useful and
// isn't worth the embedding round trip.
const minQueryLen = 2

// keywordWeight biases ranking toward items whose searchable text literally
// contains the query's words. This is what guarantees an exact-title or
// exact-filename query surfaces the matching item first, regardless of how
// the embedder happens to score it.
const keywordWeight = 2.0

// Search ranks items by a blend of literal keyword overlap and cosine
// similarity against the query's embedding. Damaged items are omitted.
// Items with no embedding are still reachable through keyword overlap
// alone: keyword ranking is a listing-adjacent fallback, not semantic
// search.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]model.Item, error) {
	if len(strings.TrimSpace(query)) < minQueryLen {
		return nil, nil
	}
	if k <= 0 {
		k = defaultSearchK
	}

	items, err := e.items.List(ctx)
	if err != nil {
		return nil, err
	}

	similarity := make(map[string]float64)
	if vector, err := e.embedder.Embed(ctx, query); err != nil {
		vaultlog.Log.WithError(err).Debug("search: query embedding unavailable, ranking by keyword overlap only")
	} else {
		results, err := e.index.Query(ctx, vector, e.index.Size())
		if err != nil {
			vaultlog.Log.WithError(err).Debug("search: semantic query failed, ranking by keyword overlap only")
		} else {
			for _, r := range results {
				similarity[r.ItemID] = r.Similarity
			}
		}
	}

	words := queryWords(query)

	type scored struct {
		item  model.Item
		score float64
	}
	var candidates []scored
	for _, item := range items {
		if item.Damaged() {
			continue
		}
		kw := keywordOverlap(words, strings.ToLower(item.SearchableText))
		sim := similarity[item.ID]
		if kw == 0 && sim <= 0 {
			continue
		}
		candidates = append(candidates, scored{item: item, score: keywordWeight*kw + sim})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].item.CreatedAt.Equal(candidates[j].item.CreatedAt) {
			return candidates[i].item.CreatedAt.After(candidates[j].item.CreatedAt)
		}
		return candidates[i].item.ID < candidates[j].item.ID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]model.Item, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out, nil
}

func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// keywordOverlap is the fraction of query words present as substrings of
// haystack, in [0, 1].
func keywordOverlap(words []string, haystack string) float64 {
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}
