// Package search provides the main search view for the TUI.
package search

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
	"github.com/custodia-labs/pimsearch/internal/core/services"
)

// kindState is what the view remembers about the searched kind.
type kindState struct {
	query    string
	items    []messages.ResultItem
	hasMore  bool
	selected int
}

// Deps are the services the search view talks to. Only Search is required.
type Deps struct {
	Search   driving.SearchModel
	Entities driving.EntityService
	Settings driving.SettingsService
	Progress driven.ProgressTracker
}

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	deps  Deps
	kinds *services.ListStateCache[domain.EntityKind, *kindState]
	ctx   context.Context
	now   func() time.Time

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing, false = navigating results
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, deps Deps) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		deps:       deps,
		kinds:      services.NewListStateCache(func(domain.EntityKind) *kindState { return &kindState{} }),
		ctx:        context.Background(),
		now:        time.Now,
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.kinds.Select(domain.KindMail)
	return v
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.IndexStateChanged:
		v.statusbar.SetIndexState(msg.State)
		return v, nil

	case messages.ProgressChanged:
		if v.statusbar.State() == status.StateSearching {
			v.statusbar.SetProgress(msg.Percent)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.ToggleKind) {
		v.toggleKind()
		return v, nil
	}

	if v.focusInput {
		switch msg.Type {
		case tea.KeyEnter:
			return v, v.submit()
		case tea.KeyEsc:
			if !v.list.IsEmpty() {
				v.focusResults()
			}
			return v, nil
		default:
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return v, cmd
		}
	}

	switch {
	case msg.Type == tea.KeyEnter:
		item := v.list.SelectedItem()
		if item == nil {
			return v, nil
		}
		v.state().selected = v.list.Selected()
		opened := *item
		return v, func() tea.Msg { return messages.ResultOpened{Item: opened} }
	case key.Matches(msg, v.keymap.NewSearch), msg.Type == tea.KeyEsc:
		v.focusInput = true
		v.input.Focus()
		if msg.Type != tea.KeyEsc {
			v.input.SetValue("")
		}
		return v, nil
	case key.Matches(msg, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	case key.Matches(msg, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// toggleKind switches between mail and calendar search.
func (v *View) toggleKind() {
	next := domain.KindCalendarEvent
	if v.kinds.Selected() == domain.KindCalendarEvent {
		next = domain.KindMail
	}

	state := v.kinds.Select(next)
	v.input.SetKind(next)
	if state.query != "" {
		v.input.SetValue(state.query)
	}
	v.list.SetItems(state.items, state.hasMore)
	v.list.SetSelected(state.selected)
	v.err = nil
	v.statusbar.Clear()
	v.focusInput = true
	v.input.Focus()
}

// submit runs the query unless the search model already shows its result.
func (v *View) submit() tea.Cmd {
	if v.deps.Search == nil {
		v.setError(ErrNoSearchModel)
		return nil
	}

	query, err := v.buildQuery(v.input.Value())
	if err != nil {
		v.setError(err)
		return nil
	}

	if !v.deps.Search.IsNewSearch(query.Query, query.Restriction) && !v.list.IsEmpty() {
		v.focusResults()
		return nil
	}

	v.err = nil
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateSearching)
	return v.performSearch(query)
}

func (v *View) buildQuery(text string) (domain.SearchQuery, error) {
	settings := domain.DefaultAppSettings()
	if v.deps.Settings != nil {
		current, err := v.deps.Settings.Get()
		if err != nil {
			return domain.SearchQuery{}, err
		}
		settings = *current
	}
	opts := services.QueryOptions{Type: v.kinds.Selected()}
	return services.BuildQuery(text, opts, settings.Search, v.now())
}

// performSearch returns a command that runs query and resolves its hits.
func (v *View) performSearch(query domain.SearchQuery) tea.Cmd {
	ctx := v.ctx
	deps := v.deps
	return func() tea.Msg {
		kind := query.Restriction.Type
		done := messages.SearchCompleted{Query: query.Query, Kind: kind}

		result, err := deps.Search.Search(ctx, query, deps.Progress)
		if err != nil {
			done.Err = err
			return done
		}
		if result == nil {
			done.Unavailable = true
			return done
		}

		done.Items = resolveItems(ctx, deps.Entities, kind, result.Results)
		done.HasMore = domain.HasMoreResults(result)
		return done
	}
}

// resolveItems looks up titles for ids. Ids that cannot be resolved are kept bare.
func resolveItems(
	ctx context.Context, entities driving.EntityService, kind domain.EntityKind, ids []domain.IdTuple,
) []messages.ResultItem {
	items := make([]messages.ResultItem, 0, len(ids))
	for _, id := range ids {
		item := messages.ResultItem{ID: id, Kind: kind, Title: id.ElementID}
		if entities != nil {
			switch kind {
			case domain.KindCalendarEvent:
				if event, err := entities.GetEvent(ctx, id); err == nil {
					item.Title = event.Summary
					item.Detail = event.Location
					item.When = event.StartTime
				}
			default:
				if mail, err := entities.GetMail(ctx, id); err == nil {
					item.Title = mail.Subject
					item.Detail = mail.Sender
					item.When = mail.ReceivedAt
				}
			}
		}
		items = append(items, item)
	}
	return items
}

// handleSearchCompleted stores the results under the kind they were searched for.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Kind != v.kinds.Selected() {
		return
	}
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	state := v.state()
	state.query = msg.Query
	state.items = msg.Items
	state.hasMore = msg.HasMore
	state.selected = 0

	v.err = nil
	v.list.SetItems(msg.Items, msg.HasMore)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Items))
	switch {
	case msg.Unavailable:
		v.statusbar.SetMessage("Mail search unavailable: indexing is disabled")
	case len(msg.Items) == 0:
		v.statusbar.SetMessage("No results")
	default:
		v.statusbar.SetMessage("")
	}

	if len(msg.Items) > 0 {
		v.focusResults()
	}
}

func (v *View) state() *kindState {
	return v.kinds.Get(v.kinds.Selected())
}

func (v *View) focusResults() {
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	header := v.styles.Title.Render("pimsearch") + "  " + v.styles.KindTitle(v.kinds.Selected())
	sections = append(sections, header, "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-8) // header, input, status
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Kind returns the searched kind.
func (v *View) Kind() domain.EntityKind {
	return v.kinds.Selected()
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Items returns the current search results.
func (v *View) Items() []messages.ResultItem {
	return v.list.Items()
}

// SelectedItem returns the currently selected result.
func (v *View) SelectedItem() *messages.ResultItem {
	return v.list.SelectedItem()
}

// StatusBar exposes the status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
