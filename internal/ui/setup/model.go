package setup

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/nhle/imapmail/internal/model"
)

// DoneMsg carries the completed account configuration and its password.
// Cancelled is true when the user backed out of the form.
type DoneMsg struct {
	Account   model.AccountConfig
	Password  string
	Cancelled bool
}

// Model is the account setup form. The bound fields are pointers so
// the form's writes survive the value copies Bubble Tea makes of the
// model.
type Model struct {
	form     *huh.Form
	account  *model.AccountConfig
	password *string
	tls      *bool
	width    int
	height   int
}

// New creates a setup form, pre-filled from an existing account when
// reconfiguring.
func New(existing *model.AccountConfig, width, height int) Model {
	account := &model.AccountConfig{
		ID:              uuid.New().String(),
		Port:            "993",
		Folder:          "INBOX",
		Enabled:         true,
		PollIntervalSec: 120,
	}
	tls := true
	if existing != nil {
		copied := *existing
		account = &copied
		tls = existing.TLS
	}

	m := Model{
		account:  account,
		password: new(string),
		tls:      &tls,
		width:    width,
		height:   height,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account name").
				Placeholder("Personal").
				Value(&m.account.Name),
			huh.NewInput().
				Title("IMAP host").
				Placeholder("imap.example.com").
				Value(&m.account.Host).
				Validate(required("host")),
			huh.NewInput().
				Title("IMAP port").
				Value(&m.account.Port).
				Validate(validPort),
			huh.NewInput().
				Title("Username").
				Value(&m.account.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(m.password).
				Validate(required("password")),
			huh.NewConfirm().
				Title("Use implicit TLS?").
				Description("No selects STARTTLS").
				Value(m.tls),
		),
	).WithWidth(min(width-4, 72))

	return m
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validPort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q", s)
	}
	return nil
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the setup form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, func() tea.Msg {
			return DoneMsg{Cancelled: true}
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.account.TLS = *m.tls
		account := *m.account
		password := *m.password
		return m, func() tea.Msg {
			return DoneMsg{Account: account, Password: password}
		}
	}

	return m, cmd
}

// View renders the setup form.
func (m Model) View() string {
	return m.form.View()
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
