package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoSearchModel indicates that no search model was provided.
	ErrNoSearchModel = errors.New("search model is required")
)
