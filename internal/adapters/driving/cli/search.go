package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

var (
	searchType   string
	searchFrom   string
	searchTo     string
	searchLists  []string
	searchField  string
	searchSeries bool
	searchMax    int
	searchJSON   bool
)

// now is replaced in tests.
var now = time.Now

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search mail or calendar events",
	Long: `Searches indexed mail, or calendar events within a date range.

Mail is matched on subject, body, sender and recipients unless --field
narrows it. Calendar searches cover the configured number of months from
the start of the current month unless --from and --to are given.`,
	Example: `  pimsearch search "budget review"
  pimsearch search --field sender alice
  pimsearch search -t calendar --from 2024-03-01 --to 2024-03-31 standup`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "mail", "what to search: mail or calendar")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "first day to search (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "last day to search (YYYY-MM-DD)")
	searchCmd.Flags().StringSliceVarP(&searchLists, "list", "l", nil, "folders or calendars to search")
	searchCmd.Flags().StringVar(&searchField, "field", "", "mail field: subject, body, sender or recipients")
	searchCmd.Flags().BoolVar(&searchSeries, "series", false, "only repeating events (--series=false for single events)")
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 0, "maximum mail results (0 uses the setting, -1 is unbounded)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchHit is one resolved result.
type searchHit struct {
	Kind      string `json:"kind"`
	ListID    string `json:"list_id"`
	ElementID string `json:"element_id"`
	Title     string `json:"title,omitempty"`
	From      string `json:"from,omitempty"`
	Location  string `json:"location,omitempty"`
	When      string `json:"when,omitempty"`
}

type searchOutput struct {
	Query       string      `json:"query"`
	Type        string      `json:"type"`
	Results     []searchHit `json:"results"`
	HasMore     bool        `json:"has_more"`
	Unavailable bool        `json:"unavailable,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	model, err := searchModel()
	if err != nil {
		return err
	}

	query, err := buildSearchQuery(cmd, args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	result, err := model.Search(ctx, query, svc.Progress)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	kind := query.Restriction.Type
	output := searchOutput{Query: query.Query, Type: kind.String(), Results: []searchHit{}}
	if result == nil {
		output.Unavailable = true
	} else {
		for _, id := range result.Results {
			output.Results = append(output.Results, describeHit(ctx, kind, id))
		}
		output.HasMore = domain.HasMoreResults(result)
	}

	if searchJSON {
		return outputSearchJSON(cmd, output)
	}
	outputSearchTable(cmd, output)
	return nil
}

func buildSearchQuery(cmd *cobra.Command, text string) (domain.SearchQuery, error) {
	kind, err := domain.ParseEntityKind(searchType)
	if err != nil {
		return domain.SearchQuery{}, fmt.Errorf("type %q: %w", searchType, err)
	}

	opts := services.QueryOptions{
		Type:       kind,
		ListIDs:    searchLists,
		Field:      searchField,
		MaxResults: searchMax,
	}
	if opts.From, err = parseDay(searchFrom); err != nil {
		return domain.SearchQuery{}, err
	}
	if opts.To, err = parseDay(searchTo); err != nil {
		return domain.SearchQuery{}, err
	}
	if cmd.Flags().Changed("series") {
		series := searchSeries
		opts.EventSeries = &series
	}

	settings, err := currentSettings()
	if err != nil {
		return domain.SearchQuery{}, err
	}
	return services.BuildQuery(text, opts, settings.Search, now())
}

// describeHit resolves id for display. Entities that cannot be loaded keep only their ids.
func describeHit(ctx context.Context, kind domain.EntityKind, id domain.IdTuple) searchHit {
	hit := searchHit{Kind: kind.String(), ListID: id.ListID, ElementID: id.ElementID}
	if svc.Entities == nil {
		return hit
	}

	switch kind {
	case domain.KindCalendarEvent:
		if event, err := svc.Entities.GetEvent(ctx, id); err == nil {
			hit.Title = event.Summary
			hit.Location = event.Location
			hit.When = formatEventTime(event)
		}
	default:
		if mail, err := svc.Entities.GetMail(ctx, id); err == nil {
			hit.Title = mail.Subject
			hit.From = mail.Sender
			hit.When = mail.ReceivedAt.Local().Format("2006-01-02 15:04")
		}
	}
	return hit
}

func formatEventTime(event *domain.CalendarEvent) string {
	if event.AllDay {
		return event.StartTime.Format(time.DateOnly)
	}
	return event.StartTime.Local().Format("2006-01-02 15:04")
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

func outputSearchJSON(cmd *cobra.Command, output searchOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, output searchOutput) {
	if output.Unavailable {
		cmd.Println("Mail search is unavailable while mail indexing is disabled.")
		cmd.Println("Run 'pimsearch index enable' to turn it on.")
		return
	}
	if len(output.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Results (%d):\n\n", len(output.Results))
	for i, hit := range output.Results {
		title := hit.Title
		if title == "" {
			title = hit.ListID + "/" + hit.ElementID
		}
		cmd.Printf("  [%d] %s\n", i+1, title)

		detail := hit.From
		if hit.Location != "" {
			detail = hit.Location
		}
		switch {
		case detail != "" && hit.When != "":
			cmd.Printf("      %s, %s\n", detail, hit.When)
		case hit.When != "":
			cmd.Printf("      %s\n", hit.When)
		}
	}

	if output.HasMore {
		cmd.Println()
		cmd.Println("More results are available. Raise --max to see them.")
	}
}
