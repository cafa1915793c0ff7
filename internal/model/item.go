// Package model defines the Item data model shared by every component: the
// content store references it by hash, the item index persists it, the
// enrichment pipeline mutates it, and the semantic index embeds its
// searchable text.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of capture kinds. Immutable after ingest.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
	KindLink  Kind = "link"
)

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindFile, KindLink:
		return true
	}
	return false
}

// Category is the closed classification tag set.
type Category string

const (
	CategoryIdeas     Category = "ideas"
	CategoryLinks     Category = "links"
	CategoryCode      Category = "code"
	CategoryNotes     Category = "notes"
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
	CategoryVideos    Category = "videos"
	CategoryCSV       Category = "csv"
	CategoryText      Category = "text"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryIdeas, CategoryLinks, CategoryCode, CategoryNotes, CategoryImages,
		CategoryDocuments, CategoryVideos, CategoryCSV, CategoryText:
		return true
	}
	return false
}

// damagedKey is an internal-only metadata key marking an item corrupted:
// listing still shows it, search filters it out.
const damagedKey = "_damaged"

// Metadata is a semi-structured bag of string values. Unknown keys must
// survive a round trip through the item index untouched, so it is a plain
// map rather than a fixed struct; the named accessors below are convenience
// only.
type Metadata map[string]string

func (m Metadata) get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

func (m Metadata) Filename() string      { return m.get("filename") }
func (m Metadata) ThumbnailRef() string   { return m.get("thumbnail_ref") }
func (m Metadata) ExtractedText() string  { return m.get("extracted_text") }
func (m Metadata) Caption() string        { return m.get("caption") }
func (m Metadata) URL() string            { return m.get("url") }
func (m Metadata) PageTitle() string      { return m.get("page_title") }
func (m Metadata) DocTitle() string       { return m.get("doc_title") }

func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Item is the unit of capture.
type Item struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Category       Category  `json:"category"`
	Title          string    `json:"title"`
	Content        *string   `json:"content,omitempty"`
	BlobRef        *string   `json:"blob_ref,omitempty"`
	Hash           *string   `json:"hash,omitempty"`
	MimeType       string    `json:"mime_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Metadata       Metadata  `json:"metadata"`
	SearchableText string    `json:"searchable_text"`
}

// NewID mints a fresh, never-reused item identifier.
func NewID() string { return uuid.NewString() }

// Damaged reports whether enrichment or validation marked this item
// corrupted.
func (i Item) Damaged() bool { return i.Metadata.get(damagedKey) == "true" }

// MarkDamaged returns a copy of the item's metadata with the damaged flag
// set.
func MarkDamaged(md Metadata) Metadata {
	out := md.Clone()
	if out == nil {
		out = Metadata{}
	}
	out[damagedKey] = "true"
	return out
}

// Patch is a partial update applied by the item index's Update method. Nil
// fields are left untouched; Metadata, when non-nil, is merged key-by-key
// (not replaced wholesale) so enrichment stages that each touch a disjoint
// subset of keys never clobber one another.
type Patch struct {
	Title          *string
	Category       *Category
	Metadata       Metadata
	SearchableText *string
}

// ApplyMetadata merges patch metadata onto base, returning a new map.
func ApplyMetadata(base, patch Metadata) Metadata {
	out := base.Clone()
	if out == nil {
		out = Metadata{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
