// Package themes holds the color schemes of the review TUI.
package themes

import (
	"github.com/Veraticus/bomsort/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Selected      lipgloss.Style
	Header        lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusMuted   lipgloss.Style
	Primary       lipgloss.Color
	Border        lipgloss.Color
	Muted         lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Info          lipgloss.Color
}

// Default is the default theme.
var Default = newTheme(
	lipgloss.Color("#7c3aed"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#f59e0b"),
	lipgloss.Color("#3b82f6"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#a6e3a1"),
	lipgloss.Color("#f9e2af"),
	lipgloss.Color("#89dceb"),
)

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	if name == "catppuccin" {
		return CatppuccinMocha
	}
	return Default
}

func newTheme(primary, border, muted, success, warning, info lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Border:  border,
		Muted:   muted,
		Success: success,
		Warning: warning,
		Info:    info,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		Normal: lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#fafafa")).
			Bold(true),
		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(border).
			BorderBottom(true).
			Bold(true).
			Padding(0, 1),
		StatusSuccess: lipgloss.NewStyle().Foreground(success).Bold(true),
		StatusWarning: lipgloss.NewStyle().Foreground(warning).Bold(true),
		StatusInfo:    lipgloss.NewStyle().Foreground(info).Bold(true),
		StatusMuted:   lipgloss.NewStyle().Foreground(muted).Italic(true),
	}
}

// Label returns the style for a classification label.
func (t Theme) Label(label model.Label) lipgloss.Style {
	switch label {
	case model.LabelActive:
		return t.StatusSuccess
	case model.LabelPassive:
		return t.StatusInfo
	case model.LabelIgnore:
		return t.StatusMuted
	default:
		return t.StatusWarning
	}
}
