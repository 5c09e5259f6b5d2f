// Package detail provides the view showing one mail or calendar event.
package detail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
	"github.com/custodia-labs/pimsearch/internal/core/ports/driving"
)

// ErrNoEntityService indicates that results cannot be opened.
var ErrNoEntityService = errors.New("entity service not available")

// View is the scrollable detail view.
type View struct {
	styles   *styles.Styles
	entities driving.EntityService
	ctx      context.Context

	item         *messages.ResultItem
	title        string
	content      string
	lines        []string
	scrollOffset int
	width        int
	height       int
	err          error
	loading      bool
}

// NewView creates a new detail view.
func NewView(s *styles.Styles, entities driving.EntityService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		entities: entities,
		ctx:      context.Background(),
		width:    80,
		height:   24,
	}
}

// WithContext sets the context lookups run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open shows item and returns a command that loads it.
func (v *View) Open(item messages.ResultItem) tea.Cmd {
	v.item = &item
	v.title = item.Title
	v.content = ""
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.load(item)
}

func (v *View) load(item messages.ResultItem) tea.Cmd {
	ctx := v.ctx
	entities := v.entities
	return func() tea.Msg {
		loaded := messages.EntityLoaded{ID: item.ID}
		if entities == nil {
			loaded.Err = ErrNoEntityService
			return loaded
		}
		if item.Kind == domain.KindCalendarEvent {
			loaded.Event, loaded.Err = entities.GetEvent(ctx, item.ID)
		} else {
			loaded.Mail, loaded.Err = entities.GetMail(ctx, item.ID)
		}
		return loaded
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.EntityLoaded:
		if v.item == nil || msg.ID != v.item.ID {
			return v, nil
		}
		v.loading = false
		switch {
		case msg.Err != nil:
			v.err = msg.Err
		case msg.Mail != nil:
			v.title = msg.Mail.Subject
			v.content = formatMail(msg.Mail)
		case msg.Event != nil:
			v.title = msg.Event.Summary
			v.content = formatEvent(msg.Event)
		}
		v.wrapContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		v.scrollOffset = max(v.scrollOffset-1, 0)
	case "down", "j":
		v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d", " ":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc", "q":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}

	return v, nil
}

func formatMail(mail *domain.Mail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From:    %s\n", mail.Sender)
	if len(mail.Recipients) > 0 {
		fmt.Fprintf(&b, "To:      %s\n", strings.Join(mail.Recipients, ", "))
	}
	fmt.Fprintf(&b, "Date:    %s\n", mail.ReceivedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(&b, "Folder:  %s\n\n", mail.ID.ListID)
	b.WriteString(mail.Body)
	return b.String()
}

func formatEvent(event *domain.CalendarEvent) string {
	var b strings.Builder
	if event.AllDay {
		fmt.Fprintf(&b, "When:     %s (all day)\n", event.StartTime.Format("Mon 2006-01-02"))
	} else {
		fmt.Fprintf(&b, "When:     %s - %s\n",
			event.StartTime.Local().Format("Mon 2006-01-02 15:04"),
			event.EndTime.Local().Format("15:04"))
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "Where:    %s\n", event.Location)
	}
	if rule := event.RepeatRule; rule != nil {
		repeat := string(rule.Frequency)
		if rule.Interval > 1 {
			repeat = fmt.Sprintf("every %d, %s", rule.Interval, repeat)
		}
		if rule.EndTime != nil {
			repeat += " until " + rule.EndTime.Format(time.DateOnly)
		}
		fmt.Fprintf(&b, "Repeats:  %s\n", repeat)
	}
	fmt.Fprintf(&b, "Calendar: %s\n\n", event.ID.ListID)
	b.WriteString(event.Description)
	return b.String()
}

// wrapContent wraps the content to fit the view width.
func (v *View) wrapContent() {
	if v.content == "" {
		v.lines = nil
		return
	}

	contentWidth := max(v.width-4, 20)

	rawLines := strings.Split(v.content, "\n")
	v.lines = make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		runes := []rune(line)
		for len(runes) > contentWidth {
			v.lines = append(v.lines, string(runes[:contentWidth]))
			runes = runes[contentWidth:]
		}
		v.lines = append(v.lines, string(runes))
	}
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// title, separator, help and padding
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the detail view.
func (v *View) View() string {
	var b strings.Builder

	title := v.title
	if title == "" {
		title = "(no subject)"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		for _, line := range v.lines[v.scrollOffset:end] {
			b.WriteString(v.styles.Normal.Render(line))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			percentage := 0
			if v.maxScrollOffset() > 0 {
				percentage = v.scrollOffset * 100 / v.maxScrollOffset()
			}
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d%%] Line %d-%d of %d",
				percentage, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.wrapContent()
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// Item returns the opened result.
func (v *View) Item() *messages.ResultItem {
	return v.item
}

// Content returns the rendered text of the opened entity.
func (v *View) Content() string {
	return v.content
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
