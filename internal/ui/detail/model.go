package detail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/imapmail/internal/keys"
	"github.com/nhle/imapmail/internal/message"
	"github.com/nhle/imapmail/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// MessageLoadedMsg carries an assembled message into the view.
type MessageLoadedMsg struct {
	UID uint32
	Msg *message.IncomingMessage
	Err error
}

// SaveAttachmentsMsg asks the parent to persist the open message's
// attachments.
type SaveAttachmentsMsg struct {
	UID uint32
}

// Model is the message detail view component.
type Model struct {
	uid      uint32
	msg      *message.IncomingMessage
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MessageLoadedMsg:
		m.uid = msg.UID
		m.msg = msg.Msg
		m.err = msg.Err
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.SaveAttachments):
			if m.msg != nil && m.msg.HasAttachments() {
				uid := m.uid
				return m, func() tea.Msg {
					return SaveAttachmentsMsg{UID: uid}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		return m.centered("Loading message...")
	}
	if m.err != nil {
		return m.centered("Could not load message:\n" + m.err.Error())
	}
	if m.msg == nil {
		return m.centered("No message selected")
	}

	return m.viewport.View()
}

func (m Model) centered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// renderContent builds the full message content string for the viewport.
func (m Model) renderContent() string {
	if m.msg == nil {
		return ""
	}

	h := m.msg.Header
	var sections []string

	// Subject
	subject := h.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(subject))
	sections = append(sections, "")

	// Header fields
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	from := h.FromAddress
	if h.FromName != "" {
		from = fmt.Sprintf("%s <%s>", h.FromName, h.FromAddress)
	}
	sections = append(sections, fmt.Sprintf(
		"%s  %s", metaStyle.Render("From:"), valStyle.Render(from),
	))
	if len(h.To) > 0 {
		sections = append(sections, fmt.Sprintf(
			"%s    %s", metaStyle.Render("To:"), valStyle.Render(addressLine(h.To)),
		))
	}
	if len(h.Cc) > 0 {
		sections = append(sections, fmt.Sprintf(
			"%s    %s", metaStyle.Render("Cc:"), valStyle.Render(addressLine(h.Cc)),
		))
	}
	if !h.Date.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s", metaStyle.Render("Date:"),
			valStyle.Render(h.Date.Format("2006-01-02 15:04")),
		))
	}

	// Attachments
	if m.msg.HasAttachments() {
		sections = append(sections, "")
		for _, a := range m.msg.Attachments() {
			line := theme.AttachmentBadgeStyle.Render("📎 " + a.Name())
			if path, ok := a.SavedPath(); ok {
				line += theme.DateStyle.Render(" → " + path)
			}
			sections = append(sections, line)
		}
		sections = append(sections, theme.HelpStyle.Render("press s to save attachments"))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Body: prefer plain text, fall back to stripped HTML.
	body, err := m.msg.PlainText()
	if err == nil && body == "" {
		var html string
		html, err = m.msg.HTML()
		if err == nil {
			body = stripHTML(html)
		}
	}
	switch {
	case err != nil:
		body = lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("Could not fetch body: " + err.Error())
	case body == "":
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No text content")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

// addressLine formats an address map as "Name <addr>, addr2, ...".
func addressLine(addrs map[string]string) string {
	parts := make([]string, 0, len(addrs))
	for addr, name := range addrs {
		if name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", name, addr))
		} else {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
