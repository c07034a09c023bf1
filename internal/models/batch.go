package models

import "fmt"

// FailureReason classifies why a record in a batch could not be updated.
type FailureReason string

const (
	FailureMissingID          FailureReason = "missing_id"
	FailureMissingAccessToken FailureReason = "missing_access_token"
	FailureEmptyPayload       FailureReason = "empty_payload"
	FailureUpstream           FailureReason = "upstream_error"
)

// APIError is a non-2xx response from the Bling API. The raw upstream body
// is preserved verbatim for operator diagnosis, never swallowed.
type APIError struct {
	StatusCode int            `json:"status"`
	Endpoint   string         `json:"endpoint"`
	Message    string         `json:"message"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Bling API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// ImageOutcome annotates the best-effort image stage of a record update.
// A failed image stage never fails the primary update.
type ImageOutcome struct {
	Skipped  bool           `json:"skipped,omitempty"`
	Fallback bool           `json:"fallback,omitempty"` // replaced via the generic PATCH fallback
	Error    string         `json:"error,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

// ItemResult is a record whose primary update succeeded, possibly with a
// degraded image stage.
type ItemResult struct {
	ID             string         `json:"id"`
	IdempotencyKey string         `json:"idempotency_key"`
	Response       map[string]any `json:"response,omitempty"`
	Images         *ImageOutcome  `json:"images,omitempty"`
}

// ItemFailure is a record whose primary update did not happen or was
// rejected upstream.
type ItemFailure struct {
	ID      string         `json:"id,omitempty"`
	Reason  FailureReason  `json:"reason"`
	Status  int            `json:"status,omitempty"`
	Message string         `json:"message,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// BatchResult aggregates one patch request. Partial success is expected and
// representable; the batch is fully successful only when Failures is empty.
type BatchResult struct {
	IdempotencyKey string         `json:"idempotency_key"`
	Results        []*ItemResult  `json:"results"`
	Failures       []*ItemFailure `json:"failures"`
}

// Succeeded reports whether every record in the batch was updated.
func (b *BatchResult) Succeeded() bool {
	return len(b.Failures) == 0
}
