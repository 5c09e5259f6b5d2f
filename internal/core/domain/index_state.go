package domain

import "math"

// NothingIndexedTimestamp is the watermark before any mail was indexed.
const NothingIndexedTimestamp int64 = math.MaxInt64

// FullIndexedTimestamp is the watermark once every mail has been indexed.
const FullIndexedTimestamp int64 = 0

// IndexStateInfo describes the state of the mail indexer.
type IndexStateInfo struct {
	Initializing     bool `json:"initializing"`
	MailIndexEnabled bool `json:"mail_index_enabled"`

	// Progress is 0 when idle, otherwise the percentage (0-100] of the current run.
	Progress float64 `json:"progress"`

	// CurrentMailIndexTimestamp is the received time (epoch ms) of the oldest indexed mail.
	CurrentMailIndexTimestamp int64 `json:"current_mail_index_timestamp"`

	// AimedMailIndexTimestamp is where the current run is heading.
	AimedMailIndexTimestamp int64 `json:"aimed_mail_index_timestamp"`

	IndexedMailCount int `json:"indexed_mail_count"`

	// FailedIndexingUpTo is set when a run failed before reaching its aim.
	FailedIndexingUpTo *int64 `json:"failed_indexing_up_to,omitempty"`
}

// DefaultIndexState is the state before the indexer has initialised.
func DefaultIndexState() IndexStateInfo {
	return IndexStateInfo{
		Initializing:              true,
		MailIndexEnabled:          false,
		Progress:                  0,
		CurrentMailIndexTimestamp: NothingIndexedTimestamp,
		AimedMailIndexTimestamp:   NothingIndexedTimestamp,
		IndexedMailCount:          0,
		FailedIndexingUpTo:        nil,
	}
}
