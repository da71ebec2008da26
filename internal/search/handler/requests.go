package handler

import "strings"

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

func (r *SearchRequest) Normalize() {
	r.SessionID = strings.TrimSpace(r.SessionID)
}
