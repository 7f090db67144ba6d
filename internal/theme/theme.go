package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// DimmedStyle de-emphasizes read messages in the list.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// UnseenStyle emphasizes messages that have not been read yet.
var UnseenStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// FlagBadgeStyle marks flagged messages.
var FlagBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// AttachmentBadgeStyle marks messages and parts that carry attachments.
var AttachmentBadgeStyle = lipgloss.NewStyle().
	Foreground(ColorMagenta)

// DateStyle renders message dates in lists and headers.
var DateStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// AccountLabelStyle returns a color-coded style for an account label.
func AccountLabelStyle(accountID string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	// Stable color per account, cycling a small palette.
	palette := []lipgloss.AdaptiveColor{
		ColorBlue, ColorGreen, ColorMagenta, ColorOrange, ColorYellow,
	}
	var sum int
	for _, r := range accountID {
		sum += int(r)
	}
	return base.Foreground(palette[sum%len(palette)])
}

// FolderStyle renders folder names in the picker and header.
var FolderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)
