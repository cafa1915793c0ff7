package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/InfinitIQFlow/AltDump/internal/vaulterr"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// FSStore is the filesystem-backed Store, laid out as:
//
//	vault/blobs/<hash>[.ext]                   primary blobs
//	vault/blobs/thumbnails/<hash>-<kind>.<ext> derived artifacts
//
// Writes are atomic: bytes are spooled to a temp file in the same
// directory, hashed while spooling, then renamed into place. A crash
// mid-write leaves only the orphaned temp file, never a partially visible
// blob.
type FSStore struct {
	root      string // vault/blobs
	derived   string // vault/blobs/thumbnails
	mu        sync.Mutex
	inflight  singleflight.Group // collapses concurrent PutDerived of the same artifact
}

// NewFSStore creates (if needed) the blob directories under vaultDir.
func NewFSStore(vaultDir string) (*FSStore, error) {
	root := filepath.Join(vaultDir, "blobs")
	derived := filepath.Join(root, "thumbnails")
	if err := os.MkdirAll(derived, 0o755); err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return &FSStore{root: root, derived: derived}, nil
}

func (s *FSStore) Put(ctx context.Context, r io.Reader, ext string) (string, error) {
	ext = normalizeExt(ext)
	hash, err := s.spoolAndRename(r, s.root, func(hash string) string { return hash + ext })
	if err != nil {
		return "", err
	}
	return hash, nil
}

// spoolAndRename hashes r while copying it to a temp file in dir, then
// renames the temp file to name(hash), skipping the rename (and removing
// the temp file) if that destination already exists. This is what makes
// Put idempotent and dedup-safe: putting the same content twice yields a
// single blob.
func (s *FSStore) spoolAndRename(r io.Reader, dir string, name func(hash string) string) (string, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	tmpPath := tmp.Name()
	removedTmp := false
	defer func() {
		if !removedTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), r); err != nil {
		_ = tmp.Close()
		return "", vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := tmp.Close(); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIOError, err)
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	dest := filepath.Join(dir, name(hash))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(dest); err == nil {
		// Already present, dedup: drop the spool.
		return hash, nil
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	removedTmp = true
	return hash, nil
}

func (s *FSStore) PathOf(hash string) (string, error) {
	path, ok := s.findByHash(s.root, hash)
	if !ok {
		return "", vaulterr.Wrap(vaulterr.ErrNotFound, fmt.Errorf("no blob for hash %s", hash))
	}
	return path, nil
}

func (s *FSStore) PutDerived(ctx context.Context, parentHash string, kind DerivedKind, r io.Reader, ext string) (string, error) {
	ext = normalizeExt(ext)
	baseName := string(kind)
	refKey := parentHash + "-" + baseName

	// Idempotent: if the artifact already exists under any extension, skip
	// regeneration entirely; r is never read.
	if existing, ok := s.findByHash(s.derived, refKey); ok {
		return filepath.Base(existing), nil
	}

	v, err, _ := s.inflight.Do(refKey, func() (interface{}, error) {
		if existing, ok := s.findByHash(s.derived, refKey); ok {
			return filepath.Base(existing), nil
		}
		if err := s.writeDerivedFile(r, refKey+ext); err != nil {
			return nil, err
		}
		return refKey + ext, nil
	})
	if err != nil {
		return "", err
	}
	ref, _ := v.(string)
	vaultlog.Log.WithFields(map[string]interface{}{
		"parent_hash": parentHash,
		"kind":        kind,
	}).Debug("derived artifact ready")
	return ref, nil
}

// writeDerivedFile spools r to a temp file and atomically renames it to
// destName under the derived-artifacts directory, without the content-hash
// bookkeeping spoolAndRename does for primary blobs (derived names are
// already deterministic from parentHash+kind, not content).
func (s *FSStore) writeDerivedFile(r io.Reader, destName string) error {
	tmp, err := os.CreateTemp(s.derived, ".tmp-*")
	if err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dest := filepath.Join(s.derived, destName)
	if err := os.Rename(tmpPath, dest); err != nil {
		return vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	return nil
}

func (s *FSStore) PathOfDerived(ref string) (string, error) {
	path := filepath.Join(s.derived, ref)
	if _, err := os.Stat(path); err != nil {
		return "", vaulterr.Wrap(vaulterr.ErrNotFound, fmt.Errorf("no derived artifact %s", ref))
	}
	return path, nil
}

func (s *FSStore) Remove(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path, ok := s.findByHash(s.root, hash); ok {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return vaulterr.Wrap(vaulterr.ErrIOError, err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(s.derived, hash+"-*"))
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return vaulterr.Wrap(vaulterr.ErrIOError, err)
		}
	}
	return nil
}

func (s *FSStore) Exists(hash string) bool {
	_, ok := s.findByHash(s.root, hash)
	return ok
}

func (s *FSStore) ListHashes(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.ErrIOError, err)
	}
	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".tmp-") {
			continue
		}
		hashes = append(hashes, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return hashes, nil
}

// findByHash locates a file named hash or hash.<ext> (or, for derived
// artifacts, hash-kind.<ext>) in dir without assuming the extension.
func (s *FSStore) findByHash(dir, hash string) (string, bool) {
	exact := filepath.Join(dir, hash)
	if _, err := os.Stat(exact); err == nil {
		return exact, true
	}
	matches, _ := filepath.Glob(filepath.Join(dir, hash+".*"))
	for _, m := range matches {
		if !strings.Contains(filepath.Base(m), string(filepath.Separator)) {
			return m, true
		}
	}
	return "", false
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

var _ Store = (*FSStore)(nil)
