// Package models holds the value types shared by the search components.
package models

import (
	"strings"
	"time"
)

// WildcardPrefix marks a search key that selects every domain under an extension.
const WildcardPrefix = "*."

// SearchKey is the canonical, lower-cased form of a user query. Keys are
// produced by the normalize package; everything downstream treats them as
// opaque except for the helpers below.
type SearchKey string

func (k SearchKey) String() string { return string(k) }

// IsWildcard reports whether the key is of the form "*.<extension>".
func (k SearchKey) IsWildcard() bool {
	return strings.HasPrefix(string(k), WildcardPrefix)
}

// Extension returns the extension of a wildcard key, or "" for literal keys.
func (k SearchKey) Extension() string {
	if !k.IsWildcard() {
		return ""
	}
	return strings.TrimPrefix(string(k), WildcardPrefix)
}

// MainLabel returns the text before the first dot of a literal key.
func (k SearchKey) MainLabel() string {
	label, _, _ := strings.Cut(string(k), ".")
	if label == "" {
		return string(k)
	}
	return label
}

// ProviderTerm is the term submitted to the external provider: wildcard keys
// lose their "*." prefix, literal keys are sent as-is.
func (k SearchKey) ProviderTerm() string {
	if k.IsWildcard() {
		return k.Extension()
	}
	return string(k)
}

// Outcome is the caller-facing result of one resolve call.
type Outcome struct {
	Key       SearchKey
	Results   *ResultSet
	FromCache bool
	// Complete is false when the call was cancelled before every phase ran.
	Complete bool

	// Local and External hold the records each phase contributed. Both are
	// nil on a cache hit; External only holds records Local did not have.
	Local    *ResultSet
	External *ResultSet

	ExternalAttempts int
	Duration         time.Duration
}

// LocalCount is the number of records contributed by the local store.
func (o *Outcome) LocalCount() int { return o.Local.Len() }

// ExternalCount is the number of records the external provider added.
func (o *Outcome) ExternalCount() int { return o.External.Len() }

// CacheStats is a point-in-time view of the cache counters.
type CacheStats struct {
	TotalRequests int64   `json:"total_requests"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
	CachedKeys    int     `json:"cached_keys"`
}

// PopularEntry pairs a cached key with its access count.
type PopularEntry struct {
	Key   SearchKey `json:"key"`
	Count int       `json:"count"`
}

// StoreCounts summarises the local record store.
type StoreCounts struct {
	Records int64 `json:"records"`
	Domains int64 `json:"domains"`
}
