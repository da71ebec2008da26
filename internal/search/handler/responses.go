package handler

import (
	"credsearch/internal/search/models"
)

// SearchResponse is the HTTP response for POST /v1/search.
type SearchResponse struct {
	SessionID     string   `json:"session_id"`
	Key           string   `json:"key"`
	Results       []string `json:"results"`
	FromCache     bool     `json:"from_cache"`
	Complete      bool     `json:"complete"`
	LocalCount    int      `json:"local_count"`
	ExternalCount int      `json:"external_count"`
	DurationMS    int64    `json:"duration_ms"`
}

func FromOutcome(sessionID string, out *models.Outcome) *SearchResponse {
	return &SearchResponse{
		SessionID:     sessionID,
		Key:           out.Key.String(),
		Results:       out.Results.Records(),
		FromCache:     out.FromCache,
		Complete:      out.Complete,
		LocalCount:    out.LocalCount(),
		ExternalCount: out.ExternalCount(),
		DurationMS:    out.Duration.Milliseconds(),
	}
}

// StatsResponse is the HTTP response for GET /v1/stats.
type StatsResponse struct {
	Cache          models.CacheStats   `json:"cache"`
	Store          *models.StoreCounts `json:"store,omitempty"`
	ActiveSearches int                 `json:"active_searches"`
}
