package tui

import "errors"

// ErrMissingSearchModel is returned when the search model is not provided.
var ErrMissingSearchModel = errors.New("tui: search model is required")
