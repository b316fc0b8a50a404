// Package worker implements the download orchestration: resolve stream
// URLs once, then fetch and cache each quality tier in fixed order.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trimedia/tri-zvuk/internal/cache"
	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/handler"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// StreamResolver resolves a media id into per-tier stream URLs.
type StreamResolver interface {
	Resolve(ctx context.Context, id, authCookie string) (domain.StreamURLSet, error)
}

// MediaFetcher downloads one URL and infers its file extension.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// DownloadWorker sequences resolver, fetcher and cache store for one
// request. Tier downloads run sequentially, best first; a failing tier
// never prevents the next tier from being attempted.
type DownloadWorker struct {
	resolver StreamResolver
	fetcher  MediaFetcher
	store    cache.Store
	logger   observability.Logger
	metrics  observability.Metrics
}

// NewDownloadWorker creates the worker.
func NewDownloadWorker(
	resolver StreamResolver,
	fetcher MediaFetcher,
	store cache.Store,
	logger observability.Logger,
	metrics observability.Metrics,
) *DownloadWorker {
	return &DownloadWorker{
		resolver: resolver,
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
		metrics:  metrics,
	}
}

// Name returns the worker name.
func (w *DownloadWorker) Name() string {
	return "zvuk-downloader"
}

// Process handles one download request.
//
// Result policy: the run succeeds when at least one attempted tier was
// stored. It fails when resolution failed or when every attempted tier
// failed. Tiers the upstream resolved no URL for are skipped and reported,
// not counted as failures.
func (w *DownloadWorker) Process(ctx context.Context, request handler.Request) (handler.Response, error) {
	start := time.Now()
	w.metrics.StartOperation("download")
	defer w.metrics.EndOperation("download")
	defer func() {
		w.metrics.RecordDuration("download", time.Since(start).Seconds())
	}()

	var req domain.DownloadRequest
	if err := request.Unmarshal(&req); err != nil {
		w.metrics.RecordError("download", "invalid_payload")
		return handler.NewErrorResponse(
			request.ID,
			domain.CodeValidation,
			"failed to parse download request",
			err.Error(),
		), nil
	}

	if err := req.Validate(); err != nil {
		w.metrics.RecordError("download", "invalid_request")
		return w.errorResponse(request.ID, err), nil
	}

	w.logger.Info(ctx, "Starting download", observability.Fields{
		"id":   req.ID,
		"hash": req.Hash,
	})

	urls, err := w.resolver.Resolve(ctx, req.ID, req.AuthCookie)
	if err != nil {
		w.metrics.RecordError("download", domain.CodeOf(err))
		w.logger.Error(ctx, "Stream resolution failed", err, observability.Fields{
			"id": req.ID,
		})
		return w.errorResponse(request.ID, err), nil
	}

	result := domain.DownloadResult{
		ID:    req.ID,
		Hash:  req.Hash,
		Files: make(map[string]string),
	}
	var tierErrs []error

	for _, tier := range domain.Tiers {
		url, ok := urls.URL(tier)
		if !ok {
			result.SkippedTiers = append(result.SkippedTiers, tier.String())
			w.logger.Warn(ctx, "Tier has no resolved URL, skipping", observability.Fields{
				"id":   req.ID,
				"tier": tier.String(),
			})
			continue
		}

		location, err := w.downloadTier(ctx, req.Hash, tier, url)
		if err != nil {
			tierErrs = append(tierErrs, fmt.Errorf("%s: %w", tier, err))
			if result.FailedTiers == nil {
				result.FailedTiers = make(map[string]string)
			}
			result.FailedTiers[tier.String()] = err.Error()
			w.logger.Error(ctx, "Tier download failed", err, observability.Fields{
				"id":   req.ID,
				"tier": tier.String(),
			})
			continue
		}

		result.Files[tier.String()] = location
	}

	if len(result.Files) == 0 {
		// Every attempted tier failed. At least one tier was attempted:
		// the resolver guarantees a non-empty URL set.
		w.metrics.RecordError("download", domain.CodeAllTiersFailed)
		return handler.NewErrorResponse(
			request.ID,
			domain.CodeAllTiersFailed,
			"every quality tier failed to download",
			joinErrors(tierErrs),
		), nil
	}

	w.metrics.RecordSuccess("download")
	w.logger.Info(ctx, "Download completed", observability.Fields{
		"id":      req.ID,
		"hash":    req.Hash,
		"files":   len(result.Files),
		"failed":  len(result.FailedTiers),
		"skipped": len(result.SkippedTiers),
	})

	return handler.NewSuccessResponse(request.ID, result)
}

// downloadTier fetches one tier's bytes and commits them to the cache. The
// entry is written only after the body has been fully received.
func (w *DownloadWorker) downloadTier(ctx context.Context, hash string, tier domain.QualityTier, url string) (string, error) {
	data, ext, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return w.store.Put(ctx, hash, tier, ext, data)
}

// Health reports whether the cache backend accepts writes.
func (w *DownloadWorker) Health(ctx context.Context) error {
	return w.store.Healthy(ctx)
}

func (w *DownloadWorker) errorResponse(requestID string, err error) handler.Response {
	if derr, ok := err.(*domain.DomainError); ok {
		resp := handler.NewErrorResponse(requestID, derr.Code, derr.Message, "")
		if derr.Err != nil {
			resp.Error.Details = derr.Err.Error()
		}
		resp.Error.Retryable = derr.Retryable
		return resp
	}
	return handler.NewErrorResponse(requestID, domain.CodeInternalFault, "download failed", err.Error())
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
