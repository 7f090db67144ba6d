package folders

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/imapmail/internal/keys"
	"github.com/nhle/imapmail/internal/theme"
)

// LoadedMsg carries the folder names listed from the server.
type LoadedMsg struct {
	Folders []string
	Err     error
}

// SelectedMsg is sent when the user picks a folder to open.
type SelectedMsg struct {
	Folder string
}

// BackMsg signals the parent to close the picker.
type BackMsg struct{}

type item string

func (i item) FilterValue() string { return string(i) }

type delegate struct{}

func (d delegate) Height() int                             { return 1 }
func (d delegate) Spacing() int                            { return 0 }
func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	name, ok := li.(item)
	if !ok {
		return
	}
	line := theme.FolderStyle.Render(string(name))
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(string(name))
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the folder picker view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	err    error
	width  int
	height int
}

// New creates a folder picker.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Folders"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the folder picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, len(msg.Folders))
		for i, name := range msg.Folders {
			items[i] = item(name)
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			name, ok := m.list.SelectedItem().(item)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedMsg{Folder: string(name)}
			}

		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the folder picker.
func (m Model) View() string {
	if m.err != nil {
		return theme.HelpStyle.Render("Could not list folders: " + m.err.Error())
	}
	return m.list.View()
}

// SetSize updates the picker dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
