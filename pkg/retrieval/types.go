// Package retrieval searches an encoded query against a named collection.
package retrieval

import "github.com/elvenok1/servidor-api-rag/pkg/vector"

// Hit is one search result.
type Hit struct {
	ID      string         `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Response is the result of a successful search.
type Response struct {
	Status  string `json:"status"`
	Results []Hit  `json:"results"`
}

// NewResponse wraps hits in a success response. Results is never nil.
func NewResponse(hits []Hit) *Response {
	if hits == nil {
		hits = []Hit{}
	}
	return &Response{
		Status:  StatusSuccess,
		Results: hits,
	}
}

func hitFromResult(r vector.QueryResult) Hit {
	payload := r.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return Hit{
		ID:      r.ID,
		Score:   r.Score,
		Payload: payload,
	}
}
