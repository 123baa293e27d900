// Package apperr defines the error taxonomy the queue and worker use to
// decide retry vs close-out behavior, replacing exception-driven control
// flow with explicit, inspectable error kinds.
package apperr

import "errors"

// Kind classifies an error for retry/notify decisions at the worker loop.
type Kind int

const (
	// KindUnknown is the zero value; treated as non-retryable final failure.
	KindUnknown Kind = iota
	// KindTransientRemote covers LLM, embedding, reranker, or transport
	// failures that are worth retrying with backoff.
	KindTransientRemote
	// KindTransportRejected covers a chat transport rejecting the outbound
	// message (HTML parse failure, permission failure).
	KindTransportRejected
	// KindDatabaseUnavailable covers a store call failing because the
	// database itself is unreachable; retryable at the worker-loop level
	// after a fixed sleep, not via the queue's own backoff.
	KindDatabaseUnavailable
	// KindQuotaExhausted is a final failure: do not retry, notify once.
	KindQuotaExhausted
	// KindMalformedLlmResponse means JSON extraction from a model response
	// failed; callers fall back to heuristics and must not propagate this
	// as a pipeline failure.
	KindMalformedLlmResponse
	// KindEmptyInput means the normalizer rejected the input; the caller
	// sends a user-visible message and completes the job without error.
	KindEmptyInput
)

// Error is a typed, wrapped error carrying a Kind for dispatch at the
// worker loop and queue boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind and operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err, or KindUnknown if err is not (or does
// not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the worker loop should retry the job that
// produced err rather than closing it out as a final failure.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransientRemote, KindDatabaseUnavailable:
		return true
	default:
		return false
	}
}
