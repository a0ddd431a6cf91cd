package retrieval

import "errors"

var (
	// ErrConfiguration marks a failure to build or verify the search pipeline.
	ErrConfiguration = errors.New("configuration failure")

	// ErrInvalidArgument marks a request that can never succeed as sent.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrServiceUnavailable is returned while the pipeline is not ready.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRetrievalFailure marks an encoding or vector store failure on a ready pipeline.
	ErrRetrievalFailure = errors.New("retrieval failure")
)

// Status strings reported to callers.
const (
	StatusSuccess              = "success"
	StatusInvalidArgument      = "invalid_argument"
	StatusServiceUnavailable   = "service_unavailable"
	StatusRetrievalFailure     = "retrieval_failure"
	StatusConfigurationFailure = "configuration_failure"
)

// KindOf maps err to the status string callers see.
// Unclassified errors are reported as retrieval failures.
func KindOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, ErrServiceUnavailable):
		return StatusServiceUnavailable
	case errors.Is(err, ErrConfiguration):
		return StatusConfigurationFailure
	default:
		return StatusRetrievalFailure
	}
}
