package msglist

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/imapmail/internal/keys"
	"github.com/nhle/imapmail/internal/mailbox"
	"github.com/nhle/imapmail/internal/store"
	"github.com/nhle/imapmail/internal/theme"
)

// EnvelopesLoadedMsg is sent when envelopes have been loaded from the cache.
type EnvelopesLoadedMsg struct {
	Envelopes []mailbox.Envelope
}

// SelectedMsg is sent when a user selects a message to view.
type SelectedMsg struct {
	UID uint32
}

// sortModes defines the available sort modes cycled by Tab.
var sortModes = []string{"date", "from", "subject"}

// Model is the message list view component.
type Model struct {
	list        list.Model
	store       store.Store
	accountID   string
	keys        *keys.KeyMap
	filter      store.EnvelopeFilter
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new message list model.
func New(s store.Store, accountID, folder string, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = folder
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search messages..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:      l,
		store:     s,
		accountID: accountID,
		keys:      k,
		filter: store.EnvelopeFilter{
			Folder:   folder,
			SortBy:   "date",
			SortDesc: true,
		},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of envelopes.
func (m Model) Init() tea.Cmd {
	return m.LoadEnvelopes()
}

// Update handles messages for the message list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EnvelopesLoadedMsg:
		items := make([]list.Item, len(msg.Envelopes))
		for i, env := range msg.Envelopes {
			items[i] = Item{Envelope: env}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	// Delegate to list model for other messages
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Query = &query
		} else {
			m.filter.Query = nil
		}
		return m, m.LoadEnvelopes()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.LoadEnvelopes()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(Item)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMsg{UID: item.Envelope.UID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterUnseen):
		if m.filter.Unseen == nil {
			unseen := true
			m.filter.Unseen = &unseen
		} else {
			m.filter.Unseen = nil
		}
		return m, m.LoadEnvelopes()

	case key.Matches(msg, m.keys.FilterFlagged):
		if m.filter.Flagged == nil {
			flagged := true
			m.filter.Flagged = &flagged
		} else {
			m.filter.Flagged = nil
		}
		return m, m.LoadEnvelopes()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.filter.SortBy = sortModes[m.sortIndex]
		m.filter.SortDesc = m.filter.SortBy == "date"
		return m, m.LoadEnvelopes()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SelectedUID returns the UID under the cursor, 0 when the list is empty.
func (m Model) SelectedUID() uint32 {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return 0
	}
	return item.Envelope.UID
}

// SetFolder switches the list to another folder and reloads.
func (m *Model) SetFolder(folder string) tea.Cmd {
	m.filter.Folder = folder
	m.list.Title = folder
	return m.LoadEnvelopes()
}

// Folder returns the folder the list is showing.
func (m Model) Folder() string {
	return m.filter.Folder
}

// View renders the message list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no messages are available.
func (m Model) renderEmptyState() string {
	hasFilters := m.filter.Unseen != nil ||
		m.filter.Flagged != nil ||
		m.filter.Query != nil

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if hasFilters {
		return style.Render("No matching messages.\nTry adjusting your filters.")
	}

	return style.Render(
		"No messages yet.\n\n" +
			"Press r to refresh, or wait for the next sync.",
	)
}

// LoadEnvelopes returns a tea.Cmd that queries the cache with the
// current filter.
func (m Model) LoadEnvelopes() tea.Cmd {
	filter := m.filter
	s := m.store
	accountID := m.accountID
	return func() tea.Msg {
		envs, err := s.GetEnvelopes(context.Background(), accountID, filter)
		if err != nil {
			return EnvelopesLoadedMsg{Envelopes: nil}
		}
		return EnvelopesLoadedMsg{Envelopes: envs}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
