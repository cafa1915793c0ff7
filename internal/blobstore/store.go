// Package blobstore implements the content-addressed content store: opaque
// byte blobs and their derived artifacts (thumbnails, covers, posters)
// persisted on the local filesystem, addressed by the SHA-256 hash of their
// content.
package blobstore

import (
	"context"
	"io"
)

// DerivedKind is the closed set of derived-artifact kinds.
type DerivedKind string

const (
	DerivedImageThumb DerivedKind = "image-thumb"
	DerivedPDFCover   DerivedKind = "pdf-cover"
	DerivedVideoPoster DerivedKind = "video-poster"
)

// Store is the content store contract. Implementations must be safe for
// concurrent use; two concurrent Put calls for identical content must both
// succeed.
type Store interface {
	// Put writes a blob keyed by the SHA-256 of its contents, preserving
	// ext (e.g. ".png", may be empty) for OS-level previews. If a blob with
	// that hash already exists, the existing hash is returned and no bytes
	// are rewritten.
	Put(ctx context.Context, r io.Reader, ext string) (hash string, err error)

	// PathOf returns the local filesystem path for a blob without opening
	// it. Returns vaulterr.ErrNotFound if no blob with that hash exists.
	PathOf(hash string) (string, error)

	// PutDerived writes a derived artifact whose name is a deterministic
	// function of (parentHash, kind), so repeated generation is idempotent:
	// if the artifact already exists, its ref is returned unchanged and
	// bytes are not rewritten (r is not read in that case).
	PutDerived(ctx context.Context, parentHash string, kind DerivedKind, r io.Reader, ext string) (derivedRef string, err error)

	// PathOfDerived returns the local path for a derived artifact ref
	// returned by PutDerived, or vaulterr.ErrNotFound if absent. Derived
	// artifacts may be legitimately missing; reads must tolerate that.
	PathOfDerived(ref string) (string, error)

	// Remove deletes a blob and all of its derived artifacts. The caller
	// (the item index's delete path) is responsible for having confirmed no
	// item references remain.
	Remove(ctx context.Context, hash string) error

	// Exists reports whether a primary blob with the given hash is present.
	Exists(hash string) bool

	// ListHashes enumerates every primary blob's hash, for the background
	// orphan sweep (it has no other way to discover what's on disk).
	ListHashes(ctx context.Context) ([]string, error)
}
