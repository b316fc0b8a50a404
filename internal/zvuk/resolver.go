// Package zvuk resolves media identifiers into downloadable stream URLs
// through the zvuk GraphQL API.
package zvuk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// getStreamQuery asks for the per-quality stream URLs of one media id.
// Tracks expose high and mid variants; episodes and chapters only mid.
const getStreamQuery = `query getStream($ids: [ID!]!, $quality: String, $encodeType: String, $includeFlacDrm: Boolean!) {
  mediaContents(ids: $ids, quality: $quality, encodeType: $encodeType) {
    ... on Track {
      stream {
        expire
        high
        mid
        flacdrm @include(if: $includeFlacDrm)
      }
    }
    ... on Episode {
      stream {
        expire
        mid
      }
    }
    ... on Chapter {
      stream {
        expire
        mid
      }
    }
  }
}`

// Doer executes one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver performs the upstream stream-resolution call. It never caches:
// stream URLs are short-lived and every request gets a fresh set.
type Resolver struct {
	httpClient Doer
	config     config.UpstreamConfig
	logger     observability.Logger
	metrics    observability.Metrics
}

// NewResolver creates a Resolver against the configured endpoint.
func NewResolver(cfg config.UpstreamConfig, client Doer, logger observability.Logger, metrics observability.Metrics) *Resolver {
	return &Resolver{
		httpClient: client,
		config:     cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

type streamRequest struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName"`
	Variables     streamVariables `json:"variables"`
}

type streamVariables struct {
	Quality        string   `json:"quality"`
	EncodeType     string   `json:"encodeType"`
	IncludeFlacDrm bool     `json:"includeFlacDrm"`
	IDs            []string `json:"ids"`
}

type streamResponse struct {
	Data struct {
		MediaContents []struct {
			Stream struct {
				Expire string  `json:"expire"`
				High   *string `json:"high"`
				Mid    *string `json:"mid"`
			} `json:"stream"`
		} `json:"mediaContents"`
	} `json:"data"`
}

// Resolve issues one getStream call for the given media id, forwarding the
// auth cookie verbatim. An absent tier field is not an error by itself;
// only a response with no usable tier at all yields MISSING_STREAM_FIELD.
func (r *Resolver) Resolve(ctx context.Context, id, authCookie string) (domain.StreamURLSet, error) {
	start := time.Now()
	r.metrics.StartOperation("resolve")
	defer r.metrics.EndOperation("resolve")
	defer func() {
		r.metrics.RecordDuration("resolve", time.Since(start).Seconds())
	}()

	body, err := json.Marshal(streamRequest{
		Query:         getStreamQuery,
		OperationName: "getStream",
		Variables: streamVariables{
			Quality:        r.config.Quality,
			EncodeType:     r.config.EncodeType,
			IncludeFlacDrm: false,
			IDs:            []string{id},
		},
	})
	if err != nil {
		return domain.StreamURLSet{}, domain.ErrMalformedResponse("encoding stream query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.StreamURLSet{}, domain.ErrUpstreamUnavailable("building upstream request", err)
	}
	req.Header.Set("Cookie", authCookie)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/graphql-response+json, application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.metrics.RecordError("resolve", "transport")
		return domain.StreamURLSet{}, domain.ErrUpstreamUnavailable("upstream call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.metrics.RecordError("resolve", "status")
		io.Copy(io.Discard, resp.Body)
		return domain.StreamURLSet{}, domain.ErrUpstreamUnavailable(
			fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		r.metrics.RecordError("resolve", "read")
		return domain.StreamURLSet{}, domain.ErrUpstreamUnavailable("reading upstream response", err)
	}

	var parsed streamResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		r.metrics.RecordError("resolve", "parse")
		return domain.StreamURLSet{}, domain.ErrMalformedResponse("parsing upstream response", err)
	}
	if len(parsed.Data.MediaContents) == 0 {
		r.metrics.RecordError("resolve", "empty")
		return domain.StreamURLSet{}, domain.ErrMalformedResponse(
			fmt.Sprintf("no media contents for id %q", id), nil)
	}

	stream := parsed.Data.MediaContents[0].Stream
	urls := domain.NewStreamURLSet()
	var missing []string

	if stream.High != nil && *stream.High != "" {
		urls.Set(domain.TierBest, *stream.High)
	} else {
		missing = append(missing, "high")
	}
	if stream.Mid != nil && *stream.Mid != "" {
		urls.Set(domain.TierMid, *stream.Mid)
	} else {
		missing = append(missing, "mid")
	}

	if urls.Len() == 0 {
		r.metrics.RecordError("resolve", "missing_fields")
		return domain.StreamURLSet{}, domain.ErrMissingStreamField(
			fmt.Sprintf("stream object for id %q has no usable tier (missing: %s)",
				id, strings.Join(missing, ", ")))
	}

	if len(missing) > 0 {
		r.logger.Warn(ctx, "Stream resolved with missing tiers", observability.Fields{
			"id":      id,
			"missing": missing,
		})
	}

	r.metrics.RecordSuccess("resolve")
	r.logger.Debug(ctx, "Stream resolved", observability.Fields{
		"id":    id,
		"tiers": urls.Len(),
	})

	return urls, nil
}
