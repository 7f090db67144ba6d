package mailbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/imapmail/internal/message"
	"github.com/nhle/imapmail/internal/utf7"
)

func numSet(num uint32, uid bool) imap.NumSet {
	if uid {
		return imap.UIDSetNum(imap.UID(num))
	}
	return imap.SeqSetNum(num)
}

// FetchStructure retrieves the message's MIME part tree.
func (m *Mailbox) FetchStructure(num uint32, uid bool) (*message.Part, error) {
	fetchOpts := &imap.FetchOptions{
		UID:           true,
		BodyStructure: &imap.FetchItemBodyStructure{Extended: true},
	}

	fetchCmd := m.client.Fetch(numSet(num, uid), fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", num)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting structure of message %d: %w", num, err)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching structure of message %d: %w", num, err)
	}

	if buf.BodyStructure == nil {
		return nil, &message.UnexpectedStructureError{
			Reason: "server returned no body structure",
		}
	}
	return partFromStructure(buf.BodyStructure, "")
}

// FetchPartBody retrieves the raw bytes of one part. The WholePart key
// fetches the entire body text instead of a numbered section.
func (m *Mailbox) FetchPartBody(num uint32, key string, opts message.FetchOptions) ([]byte, error) {
	section := &imap.FetchItemBodySection{Peek: opts.Peek}
	if key == message.WholePart {
		section.Specifier = imap.PartSpecifierText
	} else {
		part, err := parseKey(key)
		if err != nil {
			return nil, err
		}
		section.Part = part
	}

	return m.fetchSection(num, opts.UID, section)
}

// FetchHeader retrieves the raw RFC 5322 header block without touching
// the seen flag.
func (m *Mailbox) FetchHeader(num uint32, uid bool) ([]byte, error) {
	section := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierHeader,
		Peek:      true,
	}
	return m.fetchSection(num, uid, section)
}

func (m *Mailbox) fetchSection(num uint32, uid bool, section *imap.FetchItemBodySection) ([]byte, error) {
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}

	fetchCmd := m.client.Fetch(numSet(num, uid), fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", num)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message %d: %w", num, err)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching message %d: %w", num, err)
	}

	return buf.FindBodySection(section), nil
}

// parseKey converts a dotted positional key into protocol part numbers.
func parseKey(key string) ([]int, error) {
	segs := strings.Split(key, ".")
	out := make([]int, 0, len(segs))
	for _, seg := range segs {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return nil, fmt.Errorf("invalid part key %q: %w", key, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// AssembleMessage fetches and assembles one message by UID. With
// markSeen false every part fetch peeks, leaving the seen flag alone.
func (m *Mailbox) AssembleMessage(uid uint32, markSeen bool) (*message.IncomingMessage, error) {
	return message.Assemble(m, m.cfg, uid, markSeen)
}

// ListParts returns the message's flattened, addressable parts. A flat
// message yields a single whole-body entry.
func (m *Mailbox) ListParts(uid uint32) ([]message.FlattenedPart, error) {
	root, err := m.FetchStructure(uid, true)
	if err != nil {
		return nil, err
	}
	if len(root.Parts) == 0 {
		return []message.FlattenedPart{{Key: message.WholePart, Part: root}}, nil
	}
	return message.Flatten(root.Parts), nil
}

// MarkSeen sets or clears the seen flag on a message.
func (m *Mailbox) MarkSeen(uid uint32, seen bool) error {
	return m.storeFlags(uid, []imap.Flag{imap.FlagSeen}, seen)
}

// SetFlagged sets or clears the flagged marker on a message.
func (m *Mailbox) SetFlagged(uid uint32, flagged bool) error {
	return m.storeFlags(uid, []imap.Flag{imap.FlagFlagged}, flagged)
}

// Delete marks a message deleted and expunges the folder.
func (m *Mailbox) Delete(uid uint32) error {
	if err := m.storeFlags(uid, []imap.Flag{imap.FlagDeleted}, true); err != nil {
		return err
	}
	if err := m.client.Expunge().Close(); err != nil {
		return fmt.Errorf("expunging folder: %w", err)
	}
	return nil
}

// Move moves a message into another folder.
func (m *Mailbox) Move(uid uint32, folder string) error {
	set := imap.UIDSetNum(imap.UID(uid))
	if _, err := m.client.Move(set, utf7.Encode(folder)).Wait(); err != nil {
		return fmt.Errorf("moving message %d to %q: %w", uid, folder, err)
	}
	return nil
}

func (m *Mailbox) storeFlags(uid uint32, flags []imap.Flag, add bool) error {
	op := imap.StoreFlagsAdd
	if !add {
		op = imap.StoreFlagsDel
	}

	set := imap.UIDSetNum(imap.UID(uid))
	storeCmd := m.client.Store(set, &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  flags,
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("storing flags on message %d: %w", uid, err)
	}
	return nil
}
