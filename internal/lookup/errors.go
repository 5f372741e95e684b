package lookup

import "errors"

// Submission failure kinds. Each maps to one HTTP status at the API
// boundary; none are silently swallowed.
var (
	// ErrInvalidInput rejects a malformed indicator or unsupported type
	// before any quota or network cost is incurred.
	ErrInvalidInput = errors.New("invalid input")
	// ErrQuotaExceeded signals the daily limit is exhausted. The quota
	// increment semantics are owned by the quota package; nothing else is
	// consumed.
	ErrQuotaExceeded = errors.New("daily request limit reached")
	// ErrUpstream covers provider and summarizer failures, including
	// malformed provider documents. Safe to retry later; no state was
	// committed.
	ErrUpstream = errors.New("upstream failure")
	// ErrUpstreamTimeout is an ErrUpstream variant for bounded timeouts.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrPersistence signals the final write failed after provider and
	// summarizer cost was already incurred. The consumed quota slot is
	// not refunded.
	ErrPersistence = errors.New("failed to persist lookup")
)
