// Package cache persists fetched media into the deterministic cache
// layout: one directory per caller-supplied hash, a fixed "zvuk" namespace
// for this provider, one file per quality tier. Writes always overwrite;
// the last writer wins.
package cache

import (
	"context"
	"fmt"
	"path"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// serviceNamespace is the provider subdirectory under each cache hash.
const serviceNamespace = "zvuk"

// Store persists one tier's bytes for a cache hash and returns the
// location that was written.
type Store interface {
	Put(ctx context.Context, hash string, tier domain.QualityTier, ext string, data []byte) (string, error)

	// Healthy reports whether the backend can accept writes.
	Healthy(ctx context.Context) error
}

// EntryKey builds the relative cache key for a (hash, tier) pair:
// <hash>/zvuk/<tierName>[.<ext>].
func EntryKey(hash string, tier domain.QualityTier, ext string) string {
	name := tier.String()
	if ext != "" {
		name += "." + ext
	}
	return path.Join(hash, serviceNamespace, name)
}

// NewStore builds the configured cache backend.
func NewStore(cfg config.CacheConfig, logger observability.Logger, metrics observability.Metrics) (Store, error) {
	switch cfg.Backend {
	case "fs":
		return NewFSStore(cfg.Root, logger, metrics)
	case "s3":
		return NewS3Store(cfg, logger, metrics)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
