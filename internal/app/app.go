package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/imapmail/internal/credential"
	"github.com/nhle/imapmail/internal/keys"
	"github.com/nhle/imapmail/internal/mailbox"
	"github.com/nhle/imapmail/internal/model"
	"github.com/nhle/imapmail/internal/store"
	appsync "github.com/nhle/imapmail/internal/sync"
	"github.com/nhle/imapmail/internal/ui"
	"github.com/nhle/imapmail/internal/ui/detail"
	"github.com/nhle/imapmail/internal/ui/folders"
	helpview "github.com/nhle/imapmail/internal/ui/help"
	"github.com/nhle/imapmail/internal/ui/msglist"
	"github.com/nhle/imapmail/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewFolders
	ViewHelp
	ViewSetup
)

// actionResultMsg reports the outcome of a mailbox action (flag,
// delete, archive, save) back to the UI.
type actionResultMsg struct {
	info   string
	err    error
	reload bool
}

// sessionHolder shares the interactive IMAP session across the copies
// Bubble Tea makes of the root model. Commands run concurrently, so
// access is serialized.
type sessionHolder struct {
	mu   sync.Mutex
	mbox *mailbox.Mailbox
}

func (h *sessionHolder) get(dial func() (*mailbox.Mailbox, error), folder string) (*mailbox.Mailbox, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.mbox != nil {
		return h.mbox, nil
	}

	mbox, err := dial()
	if err != nil {
		return nil, err
	}
	if _, err := mbox.SelectFolder(folder); err != nil {
		mbox.Close()
		return nil, err
	}
	h.mbox = mbox
	return mbox, nil
}

func (h *sessionHolder) selectFolder(folder string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mbox == nil {
		return nil
	}
	_, err := h.mbox.SelectFolder(folder)
	return err
}

func (h *sessionHolder) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mbox != nil {
		h.mbox.Close()
		h.mbox = nil
	}
}

// Model is the root Bubble Tea model that manages view routing,
// layout, the interactive IMAP session, and the local cache.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	cfg     *model.AppConfig
	cfgPath string
	account model.AccountConfig

	store   *store.SQLiteStore
	keys    *keys.KeyMap
	session *sessionHolder

	msgList    msglist.Model
	detailView detail.Model
	helpView   helpview.Model
	folderView folders.Model
	setupView  setup.Model

	poller *appsync.Poller

	ready            bool
	statusMessage    string
	authErrorMessage string
}

// New creates a new root application model.
func New(cfg *model.AppConfig, cfgPath string, s *store.SQLiteStore) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		cfg:      cfg,
		cfgPath:  cfgPath,
		store:    s,
		keys:     k,
		session:  &sessionHolder{},
		helpView: helpview.New(k, 80, 24),
		poller:   appsync.New(s),
	}

	if len(cfg.Accounts) == 0 {
		m.currentView = ViewSetup
		m.setupView = setup.New(nil, 80, 24)
	} else {
		m.currentView = ViewList
		m.account = cfg.Accounts[0]
	}

	m.msgList = msglist.New(s, m.account.ID, m.account.Folder, k, 80, 24)
	m.detailView = detail.New(k, 80, 24)
	m.folderView = folders.New(k, 80, 24)

	return m
}

// dialer builds a poller Dialer that resolves the account password from
// the keyring at dial time.
func (m Model) dialer() appsync.Dialer {
	mail := m.cfg.Mail
	return func(cfg model.AccountConfig) (*mailbox.Mailbox, error) {
		password, err := credential.Password(cfg.ID)
		if err != nil {
			return nil, &mailbox.AuthError{
				Username: cfg.Username,
				Message:  fmt.Sprintf("no stored password: %v", err),
			}
		}
		return mailbox.Dial(mailbox.Options{
			Host:              cfg.Host,
			Port:              cfg.Port,
			Username:          cfg.Username,
			Password:          password,
			TLS:               cfg.TLS,
			ServerEncoding:    mail.ServerEncoding,
			IgnoreAttachments: mail.IgnoreAttachments,
			AttachmentsDir:    mail.AttachmentsDir,
		})
	}
}

// Init returns the initial commands: load the cached list and start
// polling the configured accounts.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewSetup {
		return m.setupView.Init()
	}

	for _, acct := range m.cfg.Accounts {
		if acct.Enabled {
			m.poller.RegisterAccount(acct, m.dialer())
		}
	}

	return tea.Batch(
		m.msgList.Init(),
		m.poller.Start(),
	)
}

// openSession dials the interactive session on first use and keeps it
// for the rest of the run. The poller uses its own short-lived sessions.
func (m Model) openSession() (*mailbox.Mailbox, error) {
	account := m.account
	dial := m.dialer()
	return m.session.get(func() (*mailbox.Mailbox, error) {
		return dial(account)
	}, m.msgList.Folder())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.msgList.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.folderView.SetSize(w, h)
		m.setupView.SetSize(w, h)
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		var cmds []tea.Cmd
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error != nil {
			m.statusMessage = "sync error: " + msg.Error.Error()
		} else {
			m.authErrorMessage = ""
			if msg.NewMessageCount > 0 {
				m.statusMessage = fmt.Sprintf("%d new message(s)", msg.NewMessageCount)
			}
			if msg.AccountID == m.account.ID && msg.Folder == m.msgList.Folder() {
				cmds = append(cmds, m.msgList.LoadEnvelopes())
			}
		}
		cmds = append(cmds, m.poller.WaitForNextResult())
		return m, tea.Batch(cmds...)

	case msglist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetLoading(true)
		return m, m.loadMessage(msg.UID)

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.msgList.LoadEnvelopes()

	case detail.SaveAttachmentsMsg:
		return m, m.saveAttachments(msg.UID)

	case folders.SelectedMsg:
		m.currentView = ViewList
		if err := m.session.selectFolder(msg.Folder); err != nil {
			m.statusMessage = "select failed: " + err.Error()
			return m, nil
		}
		return m, m.msgList.SetFolder(msg.Folder)

	case folders.BackMsg:
		m.currentView = ViewList
		return m, nil

	case setup.DoneMsg:
		return m.finishSetup(msg)

	case actionResultMsg:
		if msg.err != nil {
			m.statusMessage = msg.err.Error()
		} else if msg.info != "" {
			m.statusMessage = msg.info
		}
		if msg.reload {
			return m, m.msgList.LoadEnvelopes()
		}
		return m, nil

	case tea.KeyMsg:
		if handled, next, cmd := m.handleGlobalKeys(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that apply regardless of the inner
// view's own handling. Returns handled=false to fall through.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Setup form owns all input until it completes.
	if m.currentView == ViewSetup {
		return false, m, nil
	}

	if msg.String() == "ctrl+c" {
		return true, m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewList {
			m.session.close()
			m.poller.Stop()
			return true, m, tea.Quit
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return true, m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.statusMessage = "refreshing..."
		return true, m, m.poller.RefreshAccount(m.account.ID)

	case key.Matches(msg, m.keys.Folders):
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewFolders
			return true, m, m.loadFolders()
		}

	case key.Matches(msg, m.keys.ToggleFlag):
		if m.currentView == ViewList {
			return true, m, m.messageAction("flag")
		}

	case key.Matches(msg, m.keys.ToggleSeen):
		if m.currentView == ViewList {
			return true, m, m.messageAction("seen")
		}

	case key.Matches(msg, m.keys.Delete):
		if m.currentView == ViewList {
			return true, m, m.messageAction("delete")
		}

	case key.Matches(msg, m.keys.Archive):
		if m.currentView == ViewList {
			return true, m, m.messageAction("archive")
		}
	}

	return false, m, nil
}

// updateActiveView forwards a message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		m.msgList, cmd = m.msgList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewFolders:
		m.folderView, cmd = m.folderView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	}
	return m, cmd
}

// finishSetup persists the account from the setup form and starts
// syncing it.
func (m Model) finishSetup(msg setup.DoneMsg) (tea.Model, tea.Cmd) {
	if msg.Cancelled {
		if len(m.cfg.Accounts) == 0 {
			return m, tea.Quit
		}
		m.currentView = ViewList
		return m, nil
	}

	if err := credential.SetPassword(msg.Account.ID, msg.Password); err != nil {
		m.statusMessage = "storing password: " + err.Error()
		return m, nil
	}

	replaced := false
	for i := range m.cfg.Accounts {
		if m.cfg.Accounts[i].ID == msg.Account.ID {
			m.cfg.Accounts[i] = msg.Account
			replaced = true
			break
		}
	}
	if !replaced {
		m.cfg.Accounts = append(m.cfg.Accounts, msg.Account)
	}
	if err := model.SaveConfig(m.cfgPath, m.cfg); err != nil {
		m.statusMessage = "saving config: " + err.Error()
		return m, nil
	}

	m.account = msg.Account
	m.msgList = msglist.New(m.store, m.account.ID, m.account.Folder, m.keys,
		m.layout.ContentWidth(), m.layout.ContentHeight())
	m.currentView = ViewList
	m.authErrorMessage = ""

	m.poller.RegisterAccount(msg.Account, m.dialer())
	return m, tea.Batch(m.msgList.Init(), m.poller.Start(), m.poller.RefreshAccount(m.account.ID))
}

// View renders the full application frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.layout.RenderHeader(
		fmt.Sprintf("imapmail — %s / %s", m.accountLabel(), m.msgList.Folder()),
		m.syncStatus(),
	)
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	var content string
	switch m.currentView {
	case ViewList:
		content = m.msgList.View()
	case ViewDetail:
		content = m.detailView.View()
	case ViewFolders:
		content = m.folderView.View()
	case ViewHelp:
		content = m.helpView.View()
	case ViewSetup:
		content = m.setupView.View()
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) accountLabel() string {
	if m.account.Name != "" {
		return m.account.Name
	}
	if m.account.Username != "" {
		return m.account.Username
	}
	return "no account"
}

// syncStatus summarizes poller state for the header.
func (m Model) syncStatus() string {
	if m.authErrorMessage != "" {
		return m.authErrorMessage
	}

	for _, st := range m.poller.GetStatuses() {
		if st.AccountID != m.account.ID {
			continue
		}
		switch st.State {
		case appsync.SyncRunning:
			return "syncing..."
		case appsync.SyncError:
			return "sync error"
		default:
			if !st.LastSync.IsZero() {
				return "synced " + st.LastSync.Format("15:04")
			}
		}
	}
	return ""
}

// keyHints builds the contextual hint line for the status bar.
func (m Model) keyHints() string {
	var hints []string
	switch m.currentView {
	case ViewList:
		hints = []string{
			"enter open", "/ search", "u unseen", "f flag", "d delete",
			"A archive", "F folders", "r refresh", "? help", "q quit",
		}
	case ViewDetail:
		hints = []string{"esc back", "s save attachments", "j/k scroll"}
	case ViewFolders:
		hints = []string{"enter select", "esc back"}
	case ViewHelp:
		hints = []string{"? close"}
	case ViewSetup:
		hints = []string{"enter next", "esc cancel"}
	}
	if m.statusMessage != "" {
		hints = append(hints, "· "+m.statusMessage)
	}
	return strings.Join(hints, "  ")
}

// loadMessage assembles the selected message over the interactive
// session. Opening a message marks it seen.
func (m Model) loadMessage(uid uint32) tea.Cmd {
	return func() tea.Msg {
		session, err := m.openSession()
		if err != nil {
			return detail.MessageLoadedMsg{UID: uid, Err: err}
		}

		msg, err := session.AssembleMessage(uid, true)
		return detail.MessageLoadedMsg{UID: uid, Msg: msg, Err: err}
	}
}

// loadFolders lists folders over the interactive session.
func (m Model) loadFolders() tea.Cmd {
	return func() tea.Msg {
		session, err := m.openSession()
		if err != nil {
			return folders.LoadedMsg{Err: err}
		}
		names, err := session.Folders()
		return folders.LoadedMsg{Folders: names, Err: err}
	}
}

// saveAttachments persists the open message's attachments and records
// them in the local ledger.
func (m Model) saveAttachments(uid uint32) tea.Cmd {
	accountID := m.account.ID
	folder := m.msgList.Folder()
	s := m.store
	return func() tea.Msg {
		session, err := m.openSession()
		if err != nil {
			return actionResultMsg{err: err}
		}

		msg, err := session.AssembleMessage(uid, false)
		if err != nil {
			return actionResultMsg{err: err}
		}

		saved := 0
		for _, a := range msg.Attachments() {
			ok, err := a.SaveToDisk()
			if err != nil {
				return actionResultMsg{err: err}
			}
			if !ok {
				return actionResultMsg{err: fmt.Errorf("no attachments directory configured")}
			}

			path, _ := a.SavedPath()
			data, err := a.Contents()
			if err != nil {
				return actionResultMsg{err: err}
			}
			rec := store.AttachmentRecord{
				AccountID:    accountID,
				Folder:       folder,
				UID:          uid,
				AttachmentID: a.ID(),
				Name:         a.Name(),
				ContentID:    a.ContentID(),
				Disposition:  a.Disposition(),
				Size:         int64(len(data)),
				SavedPath:    path,
			}
			if err := s.RecordAttachment(context.Background(), rec); err != nil {
				return actionResultMsg{err: err}
			}
			saved++
		}

		return actionResultMsg{info: fmt.Sprintf("saved %d attachment(s)", saved)}
	}
}

// messageAction runs a flag/seen/delete/archive action on the message
// under the cursor.
func (m Model) messageAction(action string) tea.Cmd {
	uid := m.msgList.SelectedUID()
	if uid == 0 {
		return nil
	}

	accountID := m.account.ID
	folder := m.msgList.Folder()
	s := m.store
	return func() tea.Msg {
		session, err := m.openSession()
		if err != nil {
			return actionResultMsg{err: err}
		}

		ctx := context.Background()
		switch action {
		case "flag":
			envs, _ := s.GetEnvelopes(ctx, accountID, store.EnvelopeFilter{Folder: folder})
			flagged := false
			for _, env := range envs {
				if env.UID == uid {
					flagged = env.Flagged
					break
				}
			}
			if err := session.SetFlagged(uid, !flagged); err != nil {
				return actionResultMsg{err: err}
			}

		case "seen":
			envs, _ := s.GetEnvelopes(ctx, accountID, store.EnvelopeFilter{Folder: folder})
			seen := false
			for _, env := range envs {
				if env.UID == uid {
					seen = env.Seen
					break
				}
			}
			if err := session.MarkSeen(uid, !seen); err != nil {
				return actionResultMsg{err: err}
			}

		case "delete":
			if err := session.Delete(uid); err != nil {
				return actionResultMsg{err: err}
			}
			if err := s.DeleteEnvelope(ctx, accountID, folder, uid); err != nil {
				return actionResultMsg{err: err}
			}

		case "archive":
			if err := session.Move(uid, "Archive"); err != nil {
				return actionResultMsg{err: err}
			}
			if err := s.DeleteEnvelope(ctx, accountID, folder, uid); err != nil {
				return actionResultMsg{err: err}
			}
		}

		// Re-sync the folder so flags in the cache match the server.
		envs, err := session.FetchEnvelopes([]uint32{uid})
		if err == nil && len(envs) == 1 {
			_ = s.UpsertEnvelopes(ctx, accountID, folder, envs)
		}

		return actionResultMsg{reload: true}
	}
}
