package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)
	return s
}

func TestPutIsContentAddressedAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hash1, err := s.Put(ctx, strings.NewReader("hello vault"), ".txt")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("hello vault"))
	require.Equal(t, hex.EncodeToString(sum[:]), hash1)

	hash2, err := s.Put(ctx, strings.NewReader("hello vault"), ".txt")
	require.NoError(t, err)
	require.Equal(t, hash1, hash2)

	path, err := s.PathOf(hash1)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello vault", string(b))
}

func TestPutEmptyBlobDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	h1, err := s.Put(ctx, strings.NewReader(""), "")
	require.NoError(t, err)
	sum := sha256.Sum256(nil)
	require.Equal(t, hex.EncodeToString(sum[:]), h1)

	h2, err := s.Put(ctx, strings.NewReader(""), "")
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestPathOfMissingHashIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.PathOf("deadbeef")
	require.Error(t, err)
}

func TestPutDerivedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent, err := s.Put(ctx, strings.NewReader("image bytes"), ".png")
	require.NoError(t, err)

	ref1, err := s.PutDerived(ctx, parent, DerivedImageThumb, strings.NewReader("thumb-v1"), ".jpg")
	require.NoError(t, err)

	// Second call must not overwrite: even different bytes are ignored
	// because the artifact already exists.
	ref2, err := s.PutDerived(ctx, parent, DerivedImageThumb, strings.NewReader("thumb-v2-different"), ".jpg")
	require.NoError(t, err)
	require.Equal(t, ref1, ref2)

	path, err := s.PathOfDerived(ref1)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "thumb-v1", string(b))
}

func TestRemoveDeletesPrimaryAndDerived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent, err := s.Put(ctx, strings.NewReader("image bytes"), ".png")
	require.NoError(t, err)
	_, err = s.PutDerived(ctx, parent, DerivedImageThumb, strings.NewReader("thumb"), ".jpg")
	require.NoError(t, err)

	require.True(t, s.Exists(parent))
	require.NoError(t, s.Remove(ctx, parent))
	require.False(t, s.Exists(parent))

	_, err = s.PathOfDerived(parent + "-image-thumb.jpg")
	require.Error(t, err)
}

func TestListHashes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	h1, err := s.Put(ctx, strings.NewReader("one"), ".txt")
	require.NoError(t, err)
	h2, err := s.Put(ctx, strings.NewReader("two"), "")
	require.NoError(t, err)

	hashes, err := s.ListHashes(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{h1, h2}, hashes)
}
