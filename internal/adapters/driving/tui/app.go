package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/views/detail"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	searchView *search.View
	detailView *detail.View

	currentView messages.ViewType

	// indexStates and progress carry published values into the update loop.
	indexStates <-chan domain.IndexStateInfo
	progress    <-chan float64
	unsubscribe []func()

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
// Close must be called once the program has finished.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	deps := search.Deps{
		Search:   ports.Search,
		Entities: ports.Entities,
		Settings: ports.Settings,
	}
	if ports.Progress != nil {
		deps.Progress = ports.Progress
	}

	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		searchView:  search.NewView(s, km, deps),
		detailView:  detail.NewView(s, ports.Entities),
		currentView: messages.ViewSearch,
	}

	indexState := ports.Search.IndexState()
	a.searchView.StatusBar().SetIndexState(indexState.Get())
	states, unsubscribe := watch(indexState)
	a.indexStates = states
	a.unsubscribe = append(a.unsubscribe, unsubscribe)

	if ports.Progress != nil {
		progress, unsubscribe := watch(ports.Progress.Progress())
		a.progress = progress
		a.unsubscribe = append(a.unsubscribe, unsubscribe)
	}

	return a, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.detailView.WithContext(ctx)
	return a
}

// Close stops forwarding published values.
func (a *App) Close() {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("pimsearch"),
		a.searchView.Init(),
		a.waitForIndexState(),
		a.waitForProgress(),
	)
}

func (a *App) waitForIndexState() tea.Cmd {
	return waitFor(a.indexStates, func(state domain.IndexStateInfo) tea.Msg {
		return messages.IndexStateChanged{State: state}
	})
}

func (a *App) waitForProgress() tea.Cmd {
	return waitFor(a.progress, func(percent float64) tea.Msg {
		return messages.ProgressChanged{Percent: percent}
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case messages.IndexStateChanged:
		a.searchView, _ = a.searchView.Update(msg)
		return a, a.waitForIndexState()

	case messages.ProgressChanged:
		a.searchView, _ = a.searchView.Update(msg)
		return a, a.waitForProgress()

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.ResultOpened:
		a.currentView = messages.ViewDetail
		return a, a.detailView.Open(msg.Item)

	case messages.EntityLoaded:
		a.detailView, cmd = a.detailView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewDetail {
			a.detailView, cmd = a.detailView.Update(msg)
		} else {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewSearch {
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case messages.ViewHelp:
		// any key closes help
		a.currentView = messages.ViewSearch
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDetail:
		return a.detailView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.searchView.View()
	}
}

// viewHelp renders the keybindings.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("Searches cover the subject, body, sender and recipients of mail,"))
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("or the titles and descriptions of events in the calendar window."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("[any key] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	defer a.Close()
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SearchView returns the search view.
func (a *App) SearchView() *search.View {
	return a.searchView
}

// DetailView returns the detail view.
func (a *App) DetailView() *detail.View {
	return a.detailView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.searchView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
}
