// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pimsearch/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// linesPerItem is the height of one rendered result.
const linesPerItem = 2

// ResultList displays search results in a navigable list.
type ResultList struct {
	items    []messages.ResultItem
	hasMore  bool
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.items) == 0 {
		return r.styles.Muted.Render("No results")
	}

	header := fmt.Sprintf("Results (%d)", len(r.items))
	if r.hasMore {
		header = fmt.Sprintf("Results (%d, more available)", len(r.items))
	}
	lines := make([]string, 0, len(r.items)*linesPerItem+2)
	lines = append(lines, r.styles.Subtitle.Render(header), "")

	visibleCount := max((r.height-2)/linesPerItem, 1)

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.items))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderItem(i, &r.items[i]))
	}

	return strings.Join(lines, "\n")
}

// renderItem formats one result as a title line and a detail line.
func (r *ResultList) renderItem(index int, item *messages.ResultItem) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := item.Title
	if title == "" {
		title = "(no subject)"
	}
	title = truncate(title, max(r.width-30, 10))

	when := ""
	if !item.When.IsZero() {
		when = formatWhen(item)
	}

	tag := r.styles.KindTag(item.Kind)
	var titleLine string
	if index == r.selected {
		titleLine = tag + r.styles.Selected.Render(indicator+title)
	} else {
		titleLine = tag + r.styles.Normal.Render(indicator+title)
	}
	if when != "" {
		titleLine += "  " + r.styles.Muted.Render(when)
	}

	detail := truncate(item.Detail, max(r.width-10, 20))
	detailLine := r.styles.Muted.Render("        " + detail)

	return titleLine + "\n" + detailLine
}

func formatWhen(item *messages.ResultItem) string {
	local := item.When.Local()
	if item.Kind == domain.KindCalendarEvent {
		return local.Format("Mon 2006-01-02 15:04")
	}
	return local.Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetItems replaces the results and moves the selection to the top.
func (r *ResultList) SetItems(items []messages.ResultItem, hasMore bool) {
	r.items = items
	r.hasMore = hasMore
	r.selected = 0
}

// Items returns the current results.
func (r *ResultList) Items() []messages.ResultItem {
	return r.items
}

// HasMore reports whether the index holds more hits than shown.
func (r *ResultList) HasMore() bool {
	return r.hasMore
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.items) {
		r.selected = index
	}
}

// SelectedItem returns the currently selected result, or nil if none.
func (r *ResultList) SelectedItem() *messages.ResultItem {
	if r.selected < 0 || r.selected >= len(r.items) {
		return nil
	}
	return &r.items[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.items)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.items)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.items) == 0
}
