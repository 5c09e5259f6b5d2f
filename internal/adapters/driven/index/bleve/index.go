package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/logger"
)

const (
	watermarkKey = "pimsearch_mail_watermark"
	batchSize    = 250
)

var errIndexClosed = errors.New("index closed")

// Index wraps a bleve index with concurrency control.
type Index struct {
	mu   sync.RWMutex
	idx  blevesearch.Index
	path string
}

var (
	_ driven.IndexSearch = (*Index)(nil)
	_ driven.MailIndex   = (*Index)(nil)
)

// Open opens the index at path, creating it when missing.
// An empty path creates an in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := blevesearch.NewMemOnly(buildMapping())
		if err != nil {
			return nil, storageError("creating in-memory index", err)
		}
		return &Index{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index parent directory: %w", err)
	}

	var (
		idx blevesearch.Index
		err error
	)
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		idx, err = blevesearch.Open(path)
		if err != nil {
			return nil, storageError("opening index", err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		idx, err = blevesearch.New(path, buildMapping())
		if err != nil {
			return nil, storageError("creating index", err)
		}
	default:
		return nil, fmt.Errorf("stat index: %w", statErr)
	}

	logger.Debug("Opened mail index at %s", path)
	return &Index{idx: idx, path: path}, nil
}

// Close releases the index. Further calls fail with domain.ErrStorage.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.idx == nil {
		return nil
	}
	err := i.idx.Close()
	i.idx = nil
	if err != nil {
		return storageError("closing index", err)
	}
	return nil
}

// IndexMails adds or replaces mails using bleve batches.
func (i *Index) IndexMails(ctx context.Context, mails []domain.Mail) error {
	if len(mails) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.idx == nil {
		return storageError("indexing mails", errIndexClosed)
	}

	batch := i.idx.NewBatch()
	for n := range mails {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := newMailDocument(&mails[n])
		if err := batch.Index(mails[n].ID.Key(), doc); err != nil {
			return storageError(fmt.Sprintf("batching mail %s", mails[n].ID), err)
		}
		if batch.Size() >= batchSize {
			if err := i.idx.Batch(batch); err != nil {
				return storageError("flushing batch", err)
			}
			batch = i.idx.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := i.idx.Batch(batch); err != nil {
			return storageError("flushing final batch", err)
		}
	}
	return nil
}

// DeleteMail removes one mail from the index.
func (i *Index) DeleteMail(_ context.Context, id domain.IdTuple) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.idx == nil {
		return storageError("deleting mail", errIndexClosed)
	}
	if err := i.idx.Delete(id.Key()); err != nil {
		return storageError(fmt.Sprintf("deleting mail %s", id), err)
	}
	return nil
}

// SetWatermark stores the received time (epoch ms) of the oldest indexed mail.
func (i *Index) SetWatermark(timestamp int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.idx == nil {
		return storageError("setting watermark", errIndexClosed)
	}
	if err := i.idx.SetInternal([]byte(watermarkKey), []byte(strconv.FormatInt(timestamp, 10))); err != nil {
		return storageError("setting watermark", err)
	}
	return nil
}

// Watermark returns the stored watermark, or domain.NothingIndexedTimestamp
// when none was recorded.
func (i *Index) Watermark() int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.idx == nil {
		return domain.NothingIndexedTimestamp
	}
	return i.watermarkLocked()
}

func (i *Index) watermarkLocked() int64 {
	raw, err := i.idx.GetInternal([]byte(watermarkKey))
	if err != nil || len(raw) == 0 {
		return domain.NothingIndexedTimestamp
	}
	ts, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		logger.Warn("Ignoring malformed index watermark %q", raw)
		return domain.NothingIndexedTimestamp
	}
	return ts
}

// Clear drops every document and the watermark by recreating the index.
func (i *Index) Clear() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.idx != nil {
		_ = i.idx.Close()
		i.idx = nil
	}

	if i.path == "" {
		idx, err := blevesearch.NewMemOnly(buildMapping())
		if err != nil {
			return storageError("recreating in-memory index", err)
		}
		i.idx = idx
		return nil
	}

	if err := os.RemoveAll(i.path); err != nil {
		return storageError("removing index directory", err)
	}
	idx, err := blevesearch.New(i.path, buildMapping())
	if err != nil {
		return storageError("recreating index", err)
	}
	i.idx = idx
	logger.Info("Cleared mail index at %s", i.path)
	return nil
}

// Count returns the number of indexed mails.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.idx == nil {
		return 0, storageError("counting documents", errIndexClosed)
	}
	n, err := i.idx.DocCount()
	if err != nil {
		return 0, storageError("counting documents", err)
	}
	return n, nil
}

// mailDocument is the representation stored inside bleve.
type mailDocument struct {
	Kind       string   `json:"kind"`
	ListID     string   `json:"list_id"`
	ElementID  string   `json:"element_id"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	ReceivedAt int64    `json:"received_at"`
}

func newMailDocument(m *domain.Mail) *mailDocument {
	return &mailDocument{
		Kind:       domain.KindMail.String(),
		ListID:     m.ID.ListID,
		ElementID:  m.ID.ElementID,
		Subject:    m.Subject,
		Body:       m.Body,
		Sender:     m.Sender,
		Recipients: m.Recipients,
		ReceivedAt: m.ReceivedAt.UnixMilli(),
	}
}

func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := blevesearch.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "standard"

	docMapping := mapping.NewDocumentMapping()

	for _, name := range domain.MailFields {
		field := mapping.NewTextFieldMapping()
		field.Analyzer = "standard"
		field.Store = false
		docMapping.AddFieldMappingsAt(name, field)
	}

	for _, name := range []string{"kind", "list_id", "element_id"} {
		field := mapping.NewTextFieldMapping()
		field.Analyzer = "keyword"
		field.Store = true
		field.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, field)
	}

	receivedField := mapping.NewNumericFieldMapping()
	receivedField.Store = true
	receivedField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("received_at", receivedField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func storageError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, action, err)
}
