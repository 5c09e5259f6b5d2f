// Package styles holds the palette and lipgloss styles of the pimsearch TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pimsearch/internal/core/domain"
)

// Palette names colours by the role they play on screen.
type Palette struct {
	Accent   lipgloss.Color
	Mail     lipgloss.Color
	Calendar lipgloss.Color
	Text     lipgloss.Color
	Dim      lipgloss.Color
	Busy     lipgloss.Color
	Alert    lipgloss.Color
	Frame    lipgloss.Color
	Bar      lipgloss.Color
}

// DarkPalette is the palette used unless another one is given.
func DarkPalette() Palette {
	return Palette{
		Accent:   "#7C3AED",
		Mail:     "#06B6D4",
		Calendar: "#A6E3A1",
		Text:     "#CDD6F4",
		Dim:      "#6C7086",
		Busy:     "#F9E2AF",
		Alert:    "#F38BA8",
		Frame:    "#45475A",
		Bar:      "#181825",
	}
}

// Styles are the rendered styles derived from a palette.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	// Error and Warning report failures and disabled features.
	Error   lipgloss.Style
	Warning lipgloss.Style

	// Progress renders indexing and search progress.
	Progress lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	MailTag     lipgloss.Style
	CalendarTag lipgloss.Style
}

// FromPalette builds styles for p.
func FromPalette(p Palette) *Styles {
	plain := lipgloss.NewStyle()

	return &Styles{
		palette:  p,
		Title:    plain.Bold(true).Foreground(p.Accent),
		Subtitle: plain.Bold(true).Foreground(p.Mail),
		Normal:   plain.Foreground(p.Text),
		Muted:    plain.Foreground(p.Dim),
		Selected: plain.Bold(true).Foreground(p.Text).Background(p.Accent),
		Help:     plain.Foreground(p.Dim),
		Error:    plain.Foreground(p.Alert),
		Warning:  plain.Foreground(p.Busy).Italic(true),
		Progress: plain.Foreground(p.Busy),
		InputField: plain.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		StatusBar:   plain.Foreground(p.Dim).Background(p.Bar).Padding(0, 1),
		MailTag:     plain.Bold(true).Foreground(p.Mail),
		CalendarTag: plain.Bold(true).Foreground(p.Calendar),
	}
}

// DefaultStyles returns styles for the dark palette.
func DefaultStyles() *Styles {
	return FromPalette(DarkPalette())
}

// Palette returns the palette the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// KindTag renders the short label shown in front of a result of kind.
func (s *Styles) KindTag(kind domain.EntityKind) string {
	switch kind {
	case domain.KindCalendarEvent:
		return s.CalendarTag.Render("[cal] ")
	case domain.KindContact:
		return s.Muted.Render("[con] ")
	default:
		return s.MailTag.Render("[mail]")
	}
}

// KindTitle renders the heading of a result list of kind.
func (s *Styles) KindTitle(kind domain.EntityKind) string {
	switch kind {
	case domain.KindCalendarEvent:
		return s.CalendarTag.Render("Calendar")
	case domain.KindContact:
		return s.Subtitle.Render("Contacts")
	default:
		return s.MailTag.Render("Mail")
	}
}
