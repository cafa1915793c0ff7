// Package itemstore implements the item index: the persistent, consistent
// record of all items.
package itemstore

import (
	"context"

	"github.com/InfinitIQFlow/AltDump/internal/model"
)

// Store is the item index contract. Concurrent readers must see a
// consistent snapshot; concurrent writers serialise.
type Store interface {
	// Insert atomically adds item. Returns vaulterr.ErrDuplicateID if the
	// id already exists.
	Insert(ctx context.Context, item model.Item) error

	// Get returns the item with the given id, or vaulterr.ErrNotFound.
	Get(ctx context.Context, id string) (model.Item, error)

	// List returns every item ordered by created_at desc.
	List(ctx context.Context) ([]model.Item, error)

	// Update merges patch into the record identified by id and bumps
	// updated_at. Used only by enrichment.
	Update(ctx context.Context, id string, patch model.Patch) (model.Item, error)

	// Delete removes the record. It is not an error to delete a missing id
	// (callers that need to know should Get first).
	Delete(ctx context.Context, id string) error

	// CountReferences counts items whose blob_ref equals hash, used by
	// delete to decide whether to garbage-collect the blob.
	CountReferences(ctx context.Context, hash string) (int, error)

	// Close releases any underlying resources (file handles, pools).
	Close() error
}
