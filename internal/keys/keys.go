package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Folder picker
	Folders key.Binding

	// List filters
	FilterUnseen  key.Binding
	FilterFlagged key.Binding

	// Message actions
	ToggleFlag      key.Binding
	ToggleSeen      key.Binding
	Delete          key.Binding
	Archive         key.Binding
	SaveAttachments key.Binding

	// Sort
	CycleSort key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open message"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Folders: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "folders"),
		),
		FilterUnseen: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "toggle unseen"),
		),
		FilterFlagged: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "toggle flagged"),
		),
		ToggleFlag: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "flag/unflag"),
		),
		ToggleSeen: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "read/unread"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Archive: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "archive"),
		),
		SaveAttachments: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save attachments"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Help, k.Refresh, k.Folders},
		{k.FilterUnseen, k.FilterFlagged, k.CycleSort},
		{k.ToggleFlag, k.ToggleSeen, k.Delete, k.Archive, k.SaveAttachments},
	}
}
