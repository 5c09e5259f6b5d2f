package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for pimsearch resources.
	uriScheme = "pimsearch://"

	mailsPrefix  = uriScheme + "mails/"
	eventsPrefix = uriScheme + "events/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index-state",
		Name:        "index-state",
		Description: "Current state of the mail indexer",
		MIMEType:    "application/json",
	}, s.handleIndexStateResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: mailsPrefix + "{listId}/{elementId}",
		Name:        "mail",
		Description: "Headers and body of a stored mail",
		MIMEType:    "text/plain",
	}, s.handleMailResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: eventsPrefix + "{listId}/{elementId}",
		Name:        "event",
		Description: "Details of a stored calendar event",
		MIMEType:    "application/json",
	}, s.handleEventResource)
}

func (s *Server) handleIndexStateResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.ports.Search.IndexState().Get(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index state: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

func (s *Server) handleMailResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, ok := parseEntityURI(req.Params.URI, mailsPrefix)
	if !ok || s.ports.Entities == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	mail, err := s.ports.Entities.GetMail(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting mail: %w", err)
	}

	return textResult(req.Params.URI, "text/plain", formatMail(mail)), nil
}

func (s *Server) handleEventResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, ok := parseEntityURI(req.Params.URI, eventsPrefix)
	if !ok || s.ports.Entities == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	event, err := s.ports.Entities.GetEvent(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting event: %w", err)
	}

	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling event: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}

// parseEntityURI extracts the id from a URI like pimsearch://mails/{listId}/{elementId}.
// List ids may contain slashes; element ids may not.
func parseEntityURI(uri, prefix string) (domain.IdTuple, bool) {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return domain.IdTuple{}, false
	}
	i := strings.LastIndex(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return domain.IdTuple{}, false
	}
	return domain.IdTuple{ListID: rest[:i], ElementID: rest[i+1:]}, true
}

func formatMail(mail *domain.Mail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", mail.Subject)
	fmt.Fprintf(&b, "From: %s\n", mail.Sender)
	if len(mail.Recipients) > 0 {
		fmt.Fprintf(&b, "To: %s\n", strings.Join(mail.Recipients, ", "))
	}
	fmt.Fprintf(&b, "Date: %s\n", mail.ReceivedAt.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Folder: %s\n\n", mail.ID.ListID)
	b.WriteString(mail.Body)
	return b.String()
}
