package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSearchPerformed is emitted after a search returns results to a caller.
	EventTypeSearchPerformed = "ragsearch.search.performed"
)

// SearchPerformedEvent is a transport-neutral event payload for a completed search.
type SearchPerformedEvent struct {
	SchemaVersion int               `json:"schema_version"`
	EventType     string            `json:"event_type"`
	EventID       string            `json:"event_id"`
	EmittedAt     time.Time         `json:"emitted_at"`
	Collection    CollectionMeta    `json:"collection"`
	Request       SearchRequestMeta `json:"request"`
	Results       []ResultMeta      `json:"results"`
}

// CollectionMeta identifies the collection identity that served the search.
type CollectionMeta struct {
	Name           string `json:"name"`
	EmbeddingModel string `json:"embedding_model"`
	Fingerprint    string `json:"fingerprint"`
}

// SearchRequestMeta captures request lifecycle metadata for the event.
type SearchRequestMeta struct {
	RequestID   string    `json:"request_id,omitempty"`
	Query       string    `json:"query"`
	TopK        int       `json:"top_k"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// ResultMeta is the id and score of one returned hit. Payloads are not copied.
type ResultMeta struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}
