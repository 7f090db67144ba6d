package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/imapmail/internal/mailbox"
	"github.com/nhle/imapmail/internal/model"
	"github.com/nhle/imapmail/internal/store"
)

// SyncState represents the current state of an account sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state for a single account.
type SyncStatus struct {
	AccountID string
	State     SyncState
	LastSync  time.Time
	Error     error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	AccountID       string
	Folder          string
	Envelopes       []mailbox.Envelope
	Error           error
	AuthError       *AuthErrorMsg
	NewMessageCount int
}

// SyncStatusMsg is a tea.Msg with the current statuses of all accounts.
type SyncStatusMsg struct {
	Statuses []SyncStatus
}

// AuthErrorMsg is a tea.Msg sent when an account returns an authentication error.
type AuthErrorMsg struct {
	AccountID string
	Message   string
}

// fetchTimeout bounds the local cache operations of a single sync cycle.
const fetchTimeout = 30 * time.Second

// syncWindowDays is how far back each cycle searches for messages.
const syncWindowDays = 7

// Dialer opens a fresh authenticated session. Each poll cycle dials,
// syncs, and logs out: an IMAP session pins one selected folder, so
// sharing the interactive session with the poller would fight over it.
type Dialer func(cfg model.AccountConfig) (*mailbox.Mailbox, error)

// accountEntry holds a registered account and its configuration.
type accountEntry struct {
	cfg  model.AccountConfig
	dial Dialer
}

// Poller orchestrates background polling of registered accounts.
type Poller struct {
	store     store.Store
	accounts  []accountEntry
	statuses  map[string]*SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan string
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a new Poller with the given store.
func New(s store.Store) *Poller {
	return &Poller{
		store:     s,
		statuses:  make(map[string]*SyncStatus),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
	}
}

// RegisterAccount adds an account and its dialer to the poller.
func (p *Poller) RegisterAccount(cfg model.AccountConfig, dial Dialer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.accounts = append(p.accounts, accountEntry{cfg: cfg, dial: dial})
	p.statuses[cfg.ID] = &SyncStatus{
		AccountID: cfg.ID,
		State:     SyncIdle,
	}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns SyncResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	// Start a polling goroutine for each account
	for _, entry := range p.accounts {
		go p.pollAccount(entry)
	}

	// Return a subscription command that listens for results
	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of all registered accounts.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	accounts := make([]accountEntry, len(p.accounts))
	copy(accounts, p.accounts)
	p.mu.Unlock()

	for _, entry := range accounts {
		select {
		case p.triggerCh <- entry.cfg.ID:
		default:
			// Channel full; skip to avoid blocking
		}
	}

	return nil
}

// RefreshAccount triggers an immediate poll of a single account.
func (p *Poller) RefreshAccount(accountID string) tea.Cmd {
	select {
	case p.triggerCh <- accountID:
	default:
	}
	return nil
}

// GetStatuses returns the current sync status of all registered accounts.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollAccount runs the polling loop for a single account.
func (p *Poller) pollAccount(entry accountEntry) {
	interval := time.Duration(entry.cfg.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = 120 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.syncAccount(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.syncAccount(entry)
		case accountID := <-p.triggerCh:
			if accountID == entry.cfg.ID {
				p.syncAccount(entry)
			}
		}
	}
}

// syncAccount performs a single sync cycle: dial, select, search recent
// messages, fetch their envelopes, upsert them to the cache, and send a
// SyncResultMsg on the result channel.
func (p *Poller) syncAccount(entry accountEntry) {
	id := entry.cfg.ID
	p.setStatus(id, SyncRunning, nil)

	mbox, err := entry.dial(entry.cfg)
	if err != nil {
		p.setStatus(id, SyncError, err)

		// Detect auth errors and emit a specific message.
		if mailbox.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				AccountID: id,
				Error:     err,
				AuthError: &AuthErrorMsg{
					AccountID: id,
					Message: fmt.Sprintf(
						"%s: authentication failed, check the stored password",
						entry.cfg.Name,
					),
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{AccountID: id, Error: err})
		return
	}
	defer mbox.Close()

	folder := entry.cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := mbox.SelectFolder(folder); err != nil {
		p.setStatus(id, SyncError, err)
		p.sendResult(SyncResultMsg{AccountID: id, Error: err})
		return
	}

	uids, err := mbox.SearchUIDs(mailbox.Criteria{
		Since: time.Now().AddDate(0, 0, -syncWindowDays),
	})
	if err != nil {
		p.setStatus(id, SyncError, err)
		p.sendResult(SyncResultMsg{AccountID: id, Error: err})
		return
	}

	envelopes, err := mbox.FetchEnvelopes(uids)
	if err != nil {
		p.setStatus(id, SyncError, err)
		p.sendResult(SyncResultMsg{AccountID: id, Error: err})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	// Detect new messages by checking which UIDs are not cached yet.
	var newCount int
	if len(envelopes) > 0 {
		existing, _ := p.store.GetEnvelopes(ctx, id, store.EnvelopeFilter{
			Folder: folder,
		})
		existingUIDs := make(map[uint32]bool, len(existing))
		for _, env := range existing {
			existingUIDs[env.UID] = true
		}
		for _, env := range envelopes {
			if !existingUIDs[env.UID] {
				newCount++
			}
		}

		if upsertErr := p.store.UpsertEnvelopes(ctx, id, folder, envelopes); upsertErr != nil {
			p.setStatus(id, SyncError, upsertErr)
			p.sendResult(SyncResultMsg{AccountID: id, Error: upsertErr})
			return
		}
	}

	p.setStatus(id, SyncIdle, nil)
	p.sendResult(SyncResultMsg{
		AccountID:       id,
		Folder:          folder,
		Envelopes:       envelopes,
		NewMessageCount: newCount,
	})
}

// setStatus updates the sync status for an account.
func (p *Poller) setStatus(accountID string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[accountID]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel. After receiving a result, it returns both the
// result message and a new waitForResult command to keep listening.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
