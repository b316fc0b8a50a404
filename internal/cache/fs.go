package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// FSStore writes cache entries to the local filesystem under a fixed root.
// Directory creation is idempotent and existing files are overwritten.
type FSStore struct {
	root    string
	logger  observability.Logger
	metrics observability.Metrics
}

// NewFSStore creates the cache root if needed and returns the store.
func NewFSStore(root string, logger observability.Logger, metrics observability.Metrics) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root: %w", err)
	}
	logger.Info(context.Background(), "Filesystem cache initialized", observability.Fields{
		"root": root,
	})
	return &FSStore{
		root:    root,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Put writes the tier file at <root>/<hash>/zvuk/<tier>[.<ext>] and returns
// the absolute path. The entry is staged in the same directory and renamed
// into place, so it only ever appears with its full content; concurrent
// writers for the same key each commit a complete file and the last rename
// wins.
func (s *FSStore) Put(ctx context.Context, hash string, tier domain.QualityTier, ext string, data []byte) (string, error) {
	start := time.Now()
	s.metrics.StartOperation("cache_put")
	defer s.metrics.EndOperation("cache_put")
	defer func() {
		s.metrics.RecordDuration("cache_put", time.Since(start).Seconds())
	}()

	target := filepath.Join(s.root, filepath.FromSlash(EntryKey(hash, tier, ext)))
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.metrics.RecordError("cache_put", "mkdir")
		return "", domain.ErrPersistFailed("creating cache directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		s.metrics.RecordError("cache_put", "stage")
		return "", domain.ErrPersistFailed("staging cache entry", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.metrics.RecordError("cache_put", "write")
		return "", domain.ErrPersistFailed("writing cache entry", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		s.metrics.RecordError("cache_put", "write")
		return "", domain.ErrPersistFailed("writing cache entry", err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		s.metrics.RecordError("cache_put", "write")
		return "", domain.ErrPersistFailed("writing cache entry", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		s.metrics.RecordError("cache_put", "commit")
		return "", domain.ErrPersistFailed("committing cache entry", err)
	}

	s.metrics.RecordSuccess("cache_put")
	s.logger.Info(ctx, "Cache entry written", observability.Fields{
		"path":  target,
		"tier":  tier.String(),
		"bytes": len(data),
	})

	return target, nil
}

// Healthy verifies the cache root still exists and is a directory.
func (s *FSStore) Healthy(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("cache root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache root %s is not a directory", s.root)
	}
	return nil
}

// Root returns the cache root directory.
func (s *FSStore) Root() string {
	return s.root
}
