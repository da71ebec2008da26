package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, sinks and providers return
// these (optionally wrapped) so the resolver can decide how to degrade.
//
// - ErrNotFound: nothing persisted under the requested key
// - ErrUnavailable: backend or remote service temporarily unavailable
// - ErrInvalidInput: input could not be turned into an actionable value
// - ErrCancelled: the caller abandoned the operation
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidInput = errors.New("invalid input")
	ErrCancelled    = errors.New("cancelled")
)
