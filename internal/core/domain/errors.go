package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrUnknownSearcher indicates the searcher id is not registered.
	ErrUnknownSearcher = errors.New("unrecognised searcher")

	// ErrSearcherDisabled indicates the searcher exists but is switched off
	// in configuration.
	ErrSearcherDisabled = errors.New("searcher not enabled")

	// ErrInvalidQuery indicates the query string does not match the
	// grammar a source requires.
	ErrInvalidQuery = errors.New("invalid query format")

	// ErrNoSearchTerms indicates the query parsed to zero usable terms.
	// No upstream call is made in this case.
	ErrNoSearchTerms = errors.New("no valid search parameters")

	// Authentication errors.

	// ErrAuthFailed indicates a login or token exchange was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrAuthExpired indicates the session token expired and the single
	// refresh-and-retry cycle did not recover it.
	ErrAuthExpired = errors.New("authentication expired")

	// Upstream errors.

	// ErrUpstreamStatus indicates a non-success HTTP status from a source.
	ErrUpstreamStatus = errors.New("error response from source")

	// ErrUpstreamDecode indicates a malformed payload from a source.
	ErrUpstreamDecode = errors.New("malformed response from source")
)
