package msglist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/imapmail/internal/mailbox"
	"github.com/nhle/imapmail/internal/theme"
)

// Item wraps a mailbox.Envelope so it can be used in a bubbles/list.
type Item struct {
	Envelope mailbox.Envelope
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Envelope.Subject }

// Title returns the message subject for the list.
func (i Item) Title() string { return i.Envelope.Subject }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	return fmt.Sprintf("%s | %s", i.Envelope.FromAddress, relativeTime(i.Envelope.Date))
}

// ItemDelegate implements list.ItemDelegate for rendering envelope rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single envelope line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}

	env := it.Envelope
	isSelected := index == m.Index()

	marker := "○"
	if !env.Seen {
		marker = "●"
	}

	flag := "  "
	if env.Flagged {
		flag = theme.FlagBadgeStyle.Render("⚑ ")
	}

	answered := ""
	if env.Answered {
		answered = theme.DateStyle.Render("↩ ")
	}

	from := env.FromName
	if from == "" {
		from = env.FromAddress
	}
	if len(from) > 24 {
		from = from[:23] + "…"
	}

	subject := env.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	date := theme.DateStyle.Render(relativeTime(env.Date))

	line := fmt.Sprintf("%s %s%s%-24s  %s  %s", marker, flag, answered, from, subject, date)

	switch {
	case isSelected:
		line = theme.SelectedItemStyle.Render(line)
	case !env.Seen:
		line = theme.ListItemStyle.Render(theme.UnseenStyle.Render(line))
	default:
		line = theme.ListItemStyle.Render(theme.DimmedStyle.Render(line))
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 02")
	}
}
