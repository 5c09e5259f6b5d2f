package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string   `json:"query" jsonschema:"the words to search for"`
	Type  string   `json:"type,omitempty" jsonschema:"mail or calendar (default mail)"`
	From  string   `json:"from,omitempty" jsonschema:"first day to search, YYYY-MM-DD"`
	To    string   `json:"to,omitempty" jsonschema:"last day to search, YYYY-MM-DD"`
	Lists []string `json:"lists,omitempty" jsonschema:"folders or calendars to search"`
	Field string   `json:"field,omitempty" jsonschema:"mail field to match: subject, body, sender or recipients"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of mail results"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
	HasMore bool                 `json:"has_more"`
	Note    string               `json:"note,omitempty"`
}

// SearchResultOutput represents a single search hit.
type SearchResultOutput struct {
	Kind      string `json:"kind"`
	ListID    string `json:"list_id"`
	ElementID string `json:"element_id"`
	Title     string `json:"title,omitempty"`
	From      string `json:"from,omitempty"`
	When      string `json:"when,omitempty"`
	Location  string `json:"location,omitempty"`
}

// StatusInput is the input schema for the index_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	State  domain.IndexStateInfo `json:"state"`
	Mails  int                   `json:"mails"`
	Events int                   `json:"events"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed mail or calendar events",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the mail indexer state and stored item counts",
	}, s.handleStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	query, err := s.buildQuery(input)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	result, err := s.ports.Search.Search(ctx, query, nil)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: []SearchResultOutput{}}
	if result == nil {
		output.Note = "mail search is unavailable while mail indexing is disabled"
		return nil, output, nil
	}

	kind := query.Restriction.Type
	for _, id := range result.Results {
		output.Results = append(output.Results, s.describe(ctx, kind, id))
	}
	output.Count = len(output.Results)
	output.HasMore = domain.HasMoreResults(result)

	return nil, output, nil
}

// handleStatus handles the index_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	output := StatusOutput{State: s.ports.Search.IndexState().Get()}
	if s.ports.Entities != nil {
		mails, events, err := s.ports.Entities.Counts(ctx)
		if err != nil {
			return nil, StatusOutput{}, err
		}
		output.Mails = mails
		output.Events = events
	}
	return nil, output, nil
}

func (s *Server) buildQuery(input SearchInput) (domain.SearchQuery, error) {
	opts := services.QueryOptions{
		ListIDs:    input.Lists,
		Field:      input.Field,
		MaxResults: input.Limit,
	}

	if input.Type != "" {
		kind, err := domain.ParseEntityKind(input.Type)
		if err != nil {
			return domain.SearchQuery{}, fmt.Errorf("type %q: %w", input.Type, err)
		}
		opts.Type = kind
	}

	var err error
	if opts.From, err = parseDay(input.From); err != nil {
		return domain.SearchQuery{}, err
	}
	if opts.To, err = parseDay(input.To); err != nil {
		return domain.SearchQuery{}, err
	}

	settings := domain.DefaultAppSettings()
	if s.ports.Settings != nil {
		current, err := s.ports.Settings.Get()
		if err != nil {
			return domain.SearchQuery{}, fmt.Errorf("loading settings: %w", err)
		}
		settings = *current
	}

	return services.BuildQuery(input.Query, opts, settings.Search, s.now())
}

// describe resolves id to a result entry. Missing entities keep only their ids.
func (s *Server) describe(ctx context.Context, kind domain.EntityKind, id domain.IdTuple) SearchResultOutput {
	out := SearchResultOutput{Kind: kind.String(), ListID: id.ListID, ElementID: id.ElementID}
	if s.ports.Entities == nil {
		return out
	}

	switch kind {
	case domain.KindCalendarEvent:
		event, err := s.ports.Entities.GetEvent(ctx, id)
		if err != nil {
			return out
		}
		out.Title = event.Summary
		out.When = event.StartTime.Format(time.RFC3339)
		out.Location = event.Location
	default:
		mail, err := s.ports.Entities.GetMail(ctx, id)
		if err != nil {
			return out
		}
		out.Title = mail.Subject
		out.From = mail.Sender
		out.When = mail.ReceivedAt.Format(time.RFC3339)
	}
	return out
}

func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", domain.ErrInvalidInput, value, err)
	}
	return day, nil
}
