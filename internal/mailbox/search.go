package mailbox

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Envelope holds the summary data for one message in the selected
// folder.
type Envelope struct {
	UID         uint32
	MessageID   string
	Subject     string
	FromName    string
	FromAddress string
	To          []string
	Date        time.Time
	Seen        bool
	Flagged     bool
	Answered    bool
}

// Criteria narrows a search. Zero values mean "don't care"; the flag
// fields request presence of the flag, their Un-counterparts absence.
type Criteria struct {
	Since   time.Time
	Before  time.Time
	From    string
	To      string
	Subject string
	Text    string

	Seen     bool
	Unseen   bool
	Flagged  bool
	Answered bool
}

func (c Criteria) imapCriteria() *imap.SearchCriteria {
	out := &imap.SearchCriteria{
		Since:  c.Since,
		Before: c.Before,
	}
	if c.From != "" {
		out.Header = append(out.Header, imap.SearchCriteriaHeaderField{Key: "From", Value: c.From})
	}
	if c.To != "" {
		out.Header = append(out.Header, imap.SearchCriteriaHeaderField{Key: "To", Value: c.To})
	}
	if c.Subject != "" {
		out.Header = append(out.Header, imap.SearchCriteriaHeaderField{Key: "Subject", Value: c.Subject})
	}
	if c.Text != "" {
		out.Text = append(out.Text, c.Text)
	}
	if c.Seen {
		out.Flag = append(out.Flag, imap.FlagSeen)
	}
	if c.Unseen {
		out.NotFlag = append(out.NotFlag, imap.FlagSeen)
	}
	if c.Flagged {
		out.Flag = append(out.Flag, imap.FlagFlagged)
	}
	if c.Answered {
		out.Flag = append(out.Flag, imap.FlagAnswered)
	}
	return out
}

// SearchUIDs runs a UID SEARCH against the selected folder and returns
// matching UIDs in mailbox order.
func (m *Mailbox) SearchUIDs(c Criteria) ([]uint32, error) {
	data, err := m.client.UIDSearch(c.imapCriteria(), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := data.AllUIDs()
	out := make([]uint32, len(uids))
	for i, uid := range uids {
		out[i] = uint32(uid)
	}
	return out, nil
}

// FetchEnvelopes fetches summary data for the given UIDs. Messages that
// fail to collect individually are skipped.
func (m *Mailbox) FetchEnvelopes(uids []uint32) ([]Envelope, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	set := make(imap.UIDSet, 0, 1)
	for _, uid := range uids {
		set.AddNum(imap.UID(uid))
	}

	fetchOpts := &imap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	}

	fetchCmd := m.client.Fetch(set, fetchOpts)
	defer fetchCmd.Close()

	var envelopes []Envelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}
		envelopes = append(envelopes, envelopeFromBuffer(buf))
	}

	if err := fetchCmd.Close(); err != nil {
		return envelopes, fmt.Errorf("fetching envelopes: %w", err)
	}
	return envelopes, nil
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.FromName = from.Name
			env.FromAddress = from.Addr()
		}
		for _, to := range buf.Envelope.To {
			env.To = append(env.To, to.Addr())
		}
	}

	for _, flag := range buf.Flags {
		switch flag {
		case imap.FlagSeen:
			env.Seen = true
		case imap.FlagFlagged:
			env.Flagged = true
		case imap.FlagAnswered:
			env.Answered = true
		}
	}

	return env
}

// SortMode orders envelope listings client-side. Servers are not
// required to support the SORT extension, so sorting happens after the
// fetch.
type SortMode int

const (
	SortDateDesc SortMode = iota
	SortDateAsc
	SortFrom
	SortSubject
)

// SortEnvelopes sorts in place.
func SortEnvelopes(envs []Envelope, mode SortMode) {
	sort.SliceStable(envs, func(i, j int) bool {
		switch mode {
		case SortDateAsc:
			return envs[i].Date.Before(envs[j].Date)
		case SortFrom:
			return strings.ToLower(envs[i].FromAddress) < strings.ToLower(envs[j].FromAddress)
		case SortSubject:
			return strings.ToLower(envs[i].Subject) < strings.ToLower(envs[j].Subject)
		default:
			return envs[i].Date.After(envs[j].Date)
		}
	})
}

// Page is one page of an envelope listing.
type Page struct {
	Items   []Envelope
	Total   int
	HasMore bool
}

// Paginate slices a full envelope list into a 1-based page.
func Paginate(envs []Envelope, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 50
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start >= len(envs) {
		return Page{Total: len(envs)}
	}

	end := start + pageSize
	hasMore := end < len(envs)
	if !hasMore {
		end = len(envs)
	}

	return Page{
		Items:   envs[start:end],
		Total:   len(envs),
		HasMore: hasMore,
	}
}
