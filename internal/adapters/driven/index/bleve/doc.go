// Package bleve implements the mail full-text index on top of bleve/v2.
//
// One Index value serves both driven.IndexSearch (queries from the search
// coordinator) and driven.MailIndex (writes from the mail indexer). Documents
// are keyed by the mail's IdTuple key. The indexing watermark lives in the
// index's internal key/value space so it travels with the index files.
//
// Every failure of the underlying engine is wrapped with domain.ErrStorage.
package bleve
