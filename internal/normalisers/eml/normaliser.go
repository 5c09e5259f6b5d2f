package eml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset" // non UTF-8 charsets
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/logger"
	"github.com/custodia-labs/pimsearch/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.MailNormaliser = (*Normaliser)(nil)

// Normaliser handles EML (email) documents.
type Normaliser struct {
	now func() time.Time
}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{now: time.Now}
}

// Normalise parses an RFC 5322 message into a mail filed in folder.
//
// Messages carrying a Message-ID get a stable element id derived from it, so
// importing the same file twice replaces the earlier copy. A missing Date
// header falls back to the import time.
func (n *Normaliser) Normalise(_ context.Context, content []byte, uri, folder string) (*domain.Mail, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: empty message %s", domain.ErrInvalidInput, uri)
	}

	mr, err := mail.CreateReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidInput, uri, err)
	}
	defer mr.Close()

	header := mr.Header

	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}
	if subject == "" {
		subject = extractTitleFromURI(uri)
	}

	received, err := header.Date()
	if err != nil || received.IsZero() {
		received = n.now()
	}

	body, err := extractBody(mr)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body of %s: %w", domain.ErrInvalidInput, uri, err)
	}

	return &domain.Mail{
		ID: domain.IdTuple{
			ListID:    folder,
			ElementID: elementID(header, folder),
		},
		Subject:    subject,
		Sender:     firstAddress(header, "From"),
		Recipients: addresses(header, "To", "Cc"),
		Body:       body,
		ReceivedAt: received.UTC(),
	}, nil
}

func elementID(header mail.Header, folder string) string {
	messageID, err := header.MessageID()
	if err != nil || messageID == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(folder+"/"+messageID)).String()
}

func firstAddress(header mail.Header, key string) string {
	list := addresses(header, key)
	if len(list) == 0 {
		return strings.TrimSpace(header.Get(key))
	}
	return list[0]
}

// addresses renders every address of the given headers as "Name <addr>".
func addresses(header mail.Header, keys ...string) []string {
	out := []string{}
	for _, key := range keys {
		list, err := header.AddressList(key)
		if err != nil {
			logger.Debug("Malformed %s header: %v", key, err)
			continue
		}
		for _, a := range list {
			if a.Name != "" {
				out = append(out, a.Name+" <"+a.Address+">")
			} else {
				out = append(out, a.Address)
			}
		}
	}
	return out
}

// extractBody walks the message parts. Plain text wins over HTML, and
// attachments are skipped.
func extractBody(mr *mail.Reader) (string, error) {
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(textParts) > 0 || len(htmlParts) > 0 {
				break
			}
			return "", err
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case contentType == "" || strings.HasPrefix(contentType, "text/plain"):
			textParts = append(textParts, strings.TrimSpace(string(data)))
		case strings.HasPrefix(contentType, "text/html"):
			htmlParts = append(htmlParts, html.Text(string(data)))
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

// extractTitleFromURI extracts a title from the file URI.
func extractTitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
