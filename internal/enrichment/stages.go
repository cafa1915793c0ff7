package enrichment

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// runStages applies the enrichment stages to item in order, accumulating
// metadata changes into patch. Each stage is independent: a stage's error
// is logged and swallowed so later stages still run.
func (p *Pipeline) runStages(ctx context.Context, item model.Item) model.Metadata {
	log := vaultlog.Log.WithField("item_id", item.ID)
	patch := model.Metadata{}
	filename := item.Metadata.Filename()
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	var srcPath string
	if item.Hash != nil {
		if path, err := p.blobs.PathOf(*item.Hash); err == nil {
			srcPath = path
		} else {
			log.WithError(err).Debug("stage 1: probe skipped, blob not found")
		}
	}

	// Stage 1: size and format probe.
	if srcPath != "" {
		if pr, err := probeFile(srcPath); err != nil {
			log.WithError(err).Warn("stage 1: probe failed")
		} else {
			patch["size_bytes"] = itoa(pr.SizeBytes)
			patch["mime_type"] = pr.MimeType
		}
	}

	switch item.Category {
	case model.CategoryImages:
		p.runImageStages(ctx, log, item, srcPath, filename, patch)
	case model.CategoryDocuments:
		p.runDocumentStages(ctx, log, item, srcPath, ext, patch)
	case model.CategoryCSV:
		p.runCSVStages(ctx, log, srcPath, ext, patch)
	case model.CategoryVideos:
		p.runVideoStages(ctx, log, item, srcPath, filename, patch)
	}

	if item.Kind == model.KindText {
		p.runLLMStage(ctx, log, item, patch)
	}

	return patch
}

// Stage 2 (image thumbnail) + stage 5 (OCR + caption).
func (p *Pipeline) runImageStages(ctx context.Context, log logFields, item model.Item, srcPath, filename string, patch model.Metadata) {
	if srcPath == "" {
		return
	}

	if existing := item.Metadata.ThumbnailRef(); existing != "" {
		log.Debug("stage 2: thumbnail already present, skipping")
	} else if bytes, err := renderThumbnail(srcPath); err != nil {
		log.WithError(err).Warn("stage 2: thumbnail render failed")
	} else if item.Hash != nil {
		ref, err := p.blobs.PutDerived(ctx, *item.Hash, blobstore.DerivedImageThumb, newByteReader(bytes), ".jpg")
		if err != nil {
			log.WithError(err).Warn("stage 2: thumbnail store failed")
		} else {
			patch["thumbnail_ref"] = ref
		}
	}

	text, err := p.ocr.Recognize(ctx, srcPath)
	if err != nil {
		log.WithError(err).Debug("stage 5: ocr unavailable, using caption fallback")
		patch["caption"] = deterministicCaption(filename)
	} else {
		patch["extracted_text"] = truncate(text, p.maxTextBytes)
		patch["caption"] = deterministicCaption(filename)
	}
}

// Stage 3 (PDF cover + metadata) and stage 4 (plain-text body) for documents.
func (p *Pipeline) runDocumentStages(ctx context.Context, log logFields, item model.Item, srcPath, ext string, patch model.Metadata) {
	if srcPath == "" {
		return
	}

	if ext == "pdf" {
		info, err := extractPDF(srcPath, p.maxPDFBytes)
		if err != nil {
			log.WithError(err).Warn("stage 3: pdf extraction failed")
			return
		}
		if info.Title != "" {
			patch["doc_title"] = info.Title
		}
		if info.Author != "" {
			patch["author"] = info.Author
		}
		if info.Created != "" {
			patch["created_meta"] = info.Created
		}
		if info.Text != "" {
			patch["extracted_text"] = truncate(info.Text, p.maxTextBytes)
		}

		if existing := item.Metadata["cover_ref"]; existing != "" {
			log.Debug("stage 3: cover already present, skipping")
			return
		}
		title := info.Title
		if title == "" {
			title = item.Title
		}
		cover, err := renderDocCover(title, info.PageCount)
		if err != nil {
			log.WithError(err).Warn("stage 3: cover render failed")
			return
		}
		if item.Hash != nil {
			ref, err := p.blobs.PutDerived(ctx, *item.Hash, blobstore.DerivedPDFCover, newByteReader(cover), ".png")
			if err != nil {
				log.WithError(err).Warn("stage 3: cover store failed")
			} else {
				patch["cover_ref"] = ref
			}
		}
		return
	}

	if ext == "txt" || ext == "csv" || ext == "tsv" {
		text, err := extractPlainText(srcPath, p.maxTextBytes)
		if err != nil {
			log.WithError(err).Warn("stage 4: plain text extraction failed")
			return
		}
		patch["extracted_text"] = text
	}
}

// Stage 4, extended: plain-text body for csv/tsv, spreadsheet body for
// xls/xlsx.
func (p *Pipeline) runCSVStages(ctx context.Context, log logFields, srcPath, ext string, patch model.Metadata) {
	if srcPath == "" {
		return
	}

	switch ext {
	case "csv", "tsv":
		text, err := extractPlainText(srcPath, p.maxTextBytes)
		if err != nil {
			log.WithError(err).Warn("stage 4: plain text extraction failed")
			return
		}
		patch["extracted_text"] = text
	case "xls", "xlsx":
		text, err := extractSpreadsheet(srcPath, p.maxTextBytes)
		if err != nil {
			log.WithError(err).Warn("stage 4: spreadsheet extraction failed")
			return
		}
		patch["extracted_text"] = text
	}
}

// Stage 6 (video poster, optional).
func (p *Pipeline) runVideoStages(ctx context.Context, log logFields, item model.Item, srcPath, filename string, patch model.Metadata) {
	if srcPath == "" || item.Hash == nil {
		return
	}
	if existing := item.Metadata["poster_ref"]; existing != "" {
		log.Debug("stage 6: poster already present, skipping")
		return
	}

	var frame []byte
	if p.frames != nil {
		if f, err := p.frames.ExtractFrame(ctx, srcPath, 1.0); err == nil {
			frame = f
		}
	}
	if frame == nil {
		rendered, err := renderVideoPoster(item.Title)
		if err != nil {
			log.WithError(err).Warn("stage 6: poster render failed")
			return
		}
		frame = rendered
	}

	ref, err := p.blobs.PutDerived(ctx, *item.Hash, blobstore.DerivedVideoPoster, newByteReader(frame), ".png")
	if err != nil {
		log.WithError(err).Warn("stage 6: poster store failed")
		return
	}
	patch["poster_ref"] = ref
}

// Optional language-model enrichment, appended before the caller rebuilds
// searchable_text from the merged patch.
func (p *Pipeline) runLLMStage(ctx context.Context, log logFields, item model.Item, patch model.Metadata) {
	base := item.SearchableText
	if base == "" {
		base = model.SearchableText(item)
	}
	result, err := p.llm.Enrich(ctx, base)
	if err != nil {
		log.WithError(err).Debug("llm enrichment skipped")
		return
	}
	if result.Title != "" {
		patch["llm_title"] = result.Title
	}
	if result.Keywords != "" {
		patch["llm_keywords"] = result.Keywords
	}
	if result.Summary != "" {
		patch["llm_summary"] = result.Summary
	}
}
