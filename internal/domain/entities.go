package domain

import "fmt"

// QualityTier identifies one of the fixed media quality variants the
// upstream can resolve for a track. The set is closed: there is no dynamic
// tier discovery.
type QualityTier int

const (
	// TierBest is the highest quality variant (upstream field "high").
	TierBest QualityTier = iota
	// TierMid is the medium quality variant (upstream field "mid").
	TierMid
)

// Tiers lists all quality tiers in download order, best first.
var Tiers = [...]QualityTier{TierBest, TierMid}

// String returns the tier name used in cache paths and logs.
func (t QualityTier) String() string {
	switch t {
	case TierBest:
		return "best"
	case TierMid:
		return "mid"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// DownloadRequest is one inbound download job. The auth cookie is an opaque
// credential obtained by the caller and forwarded to the upstream verbatim.
type DownloadRequest struct {
	ID         string `json:"id"`
	Hash       string `json:"hash"`
	AuthCookie string `json:"auth_cookie"`
}

// Validate checks that all required fields are present.
func (r DownloadRequest) Validate() error {
	if r.ID == "" {
		return ErrValidation("missing media id")
	}
	if r.Hash == "" {
		return ErrValidation("missing cache hash")
	}
	if r.AuthCookie == "" {
		return ErrValidation("missing auth cookie")
	}
	return nil
}

// StreamURLSet holds the resolved stream URL per quality tier. A tier with
// no resolved URL is simply absent from the set.
type StreamURLSet struct {
	urls map[QualityTier]string
}

// NewStreamURLSet returns an empty URL set.
func NewStreamURLSet() StreamURLSet {
	return StreamURLSet{urls: make(map[QualityTier]string)}
}

// Set records the URL for a tier. Empty URLs are ignored.
func (s StreamURLSet) Set(tier QualityTier, url string) {
	if url != "" {
		s.urls[tier] = url
	}
}

// URL returns the resolved URL for a tier, if any.
func (s StreamURLSet) URL(tier QualityTier) (string, bool) {
	url, ok := s.urls[tier]
	return url, ok
}

// Len reports how many tiers resolved a URL.
func (s StreamURLSet) Len() int {
	return len(s.urls)
}

// DownloadResult reports the per-tier outcome of one run. Files maps tier
// names to the cache locations that were written; FailedTiers maps tier
// names to failure messages; SkippedTiers lists tiers the upstream resolved
// no URL for.
type DownloadResult struct {
	ID           string            `json:"id"`
	Hash         string            `json:"hash"`
	Files        map[string]string `json:"files"`
	FailedTiers  map[string]string `json:"failed_tiers,omitempty"`
	SkippedTiers []string          `json:"skipped_tiers,omitempty"`
}

// DownloadOutcome is the external wire shape of a finished request: exactly
// one per request, even under timeout or internal fault.
type DownloadOutcome struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
