package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an entity kind the operation cannot handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrContractViolation indicates a caller broke an operation's preconditions,
	// e.g. a calendar search without a date range. Callers must not retry.
	ErrContractViolation = errors.New("contract violation")

	// ErrStorage marks failures of the index or database layer.
	// Adapters wrap their errors with it so services can recognise the class
	// with errors.Is regardless of the backing engine.
	ErrStorage = errors.New("storage error")

	// ErrMailIndexDisabled indicates mail indexing is switched off.
	ErrMailIndexDisabled = errors.New("mail indexing disabled")

	// ErrIndexingInProgress indicates an indexing run is already active.
	ErrIndexingInProgress = errors.New("indexing in progress")

	// ErrSearchUnavailable indicates the search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// Connector Errors.

	// ErrAuthRequired indicates a remote source needs credentials that are not configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
