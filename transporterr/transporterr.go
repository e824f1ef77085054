// Package transporterr defines the sentinel error kinds raised across the
// transport core, so callers can classify a failure with errors.Is instead
// of string matching.
package transporterr

import "errors"

var (
	// ErrConfig marks a failure to resolve or validate static configuration
	// (an unknown CloudEvents spec version, a sink missing its host). Raised
	// at call time, not retried by the core.
	ErrConfig = errors.New("transporterr: configuration error")

	// ErrDecode marks a failure to decode an inbound CloudEvent (malformed
	// structured-mode JSON). The dispatcher converts this to HTTP 400 and
	// does not surface it further.
	ErrDecode = errors.New("transporterr: decode error")

	// ErrIllegalArgument marks an invalid argument supplied by the caller
	// (a nil outbound body). Raised at call time.
	ErrIllegalArgument = errors.New("transporterr: illegal argument")

	// ErrHTTPOperationFailed marks an outbound HTTP request that did not
	// complete successfully: non-2xx response, refused connection, or a
	// cancelled request. Surfaced to the outbound caller with URL, status,
	// and status message attached via wrapping.
	ErrHTTPOperationFailed = errors.New("transporterr: HTTP operation failed")

	// ErrCancelled marks an operation aborted because its context was
	// cancelled or its deadline exceeded.
	ErrCancelled = errors.New("transporterr: cancelled")

	// ErrInternal marks an error raised by the routing engine's receiver or
	// producer callback itself, as opposed to by the transport core.
	ErrInternal = errors.New("transporterr: internal error")
)
