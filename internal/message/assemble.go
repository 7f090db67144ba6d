package message

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/imapmail/internal/storage"
)

// Config controls how messages are assembled.
type Config struct {
	// ServerEncoding is the charset part content is converted to.
	// Defaults to UTF-8 when empty.
	ServerEncoding string
	// IgnoreAttachments skips non-text leaf parts entirely, dropping
	// attachment content and everything below it.
	IgnoreAttachments bool
	// UID addresses messages by UID instead of sequence number.
	UID bool
	// Store, when set, persists every attachment to disk during
	// assembly.
	Store *storage.Dir
}

func (c Config) target() string {
	if c.ServerEncoding == "" {
		return "UTF-8"
	}
	return c.ServerEncoding
}

// Assemble fetches the message's header and body structure and walks
// the structure into an IncomingMessage. With markSeen false all part
// fetches peek, leaving the message's seen flag untouched.
func Assemble(f Fetcher, cfg Config, num uint32, markSeen bool) (*IncomingMessage, error) {
	rawHeader, err := f.FetchHeader(num, cfg.UID)
	if err != nil {
		return nil, fmt.Errorf("fetching header of message %d: %w", num, err)
	}
	header, err := ParseHeader(rawHeader)
	if err != nil {
		return nil, err
	}

	root, err := f.FetchStructure(num, cfg.UID)
	if err != nil {
		return nil, fmt.Errorf("fetching structure of message %d: %w", num, err)
	}

	w := &walker{
		fetcher:  f,
		cfg:      cfg,
		num:      num,
		markSeen: markSeen,
		msg:      newIncomingMessage(header),
	}

	if len(root.Parts) == 0 {
		// Flat message: a single synthetic part addressing the whole
		// body.
		if err := w.walk(root, WholePart, false); err != nil {
			return nil, err
		}
		return w.msg, nil
	}
	for i, p := range root.Parts {
		if err := w.walk(p, strconv.Itoa(i+1), false); err != nil {
			return nil, err
		}
	}
	return w.msg, nil
}

type walker struct {
	fetcher  Fetcher
	cfg      Config
	num      uint32
	markSeen bool
	msg      *IncomingMessage
}

func (w *walker) newDataPart(key string, enc Encoding, charset string) *DataPart {
	return &DataPart{
		fetcher:  w.fetcher,
		num:      w.num,
		key:      key,
		encoding: enc,
		charset:  charset,
		target:   w.cfg.target(),
		opts: FetchOptions{
			Peek: !w.markSeen,
			UID:  w.cfg.UID,
		},
	}
}

// walk classifies one part and recurses into its children. emlParse is
// set while inside an embedded message that was itself dispositioned as
// an attachment; every part reached that way becomes its own
// attachment.
func (w *walker) walk(p *Part, key string, emlParse bool) error {
	params := buildParams(p)
	data := w.newDataPart(key, p.Encoding, "")

	_, hasFilename := params["filename"]
	_, hasName := params["name"]
	isAttachment := hasFilename || hasName
	if key == WholePart && p.Type == TypeText {
		// A single-part plain-text message is never its own
		// attachment, even with a name parameter.
		isAttachment = false
	}
	if isAttachment {
		w.msg.hasAttachments = true
	}

	dispositionAttachment := strings.EqualFold(p.Disposition, "attachment")

	// An embedded message dispositioned as an attachment is
	// downloadable whole as one .eml blob, in addition to walking its
	// children below.
	if strings.EqualFold(p.Subtype, "RFC822") && dispositionAttachment {
		if err := w.addAttachment(p, params, w.newDataPart(key, p.Encoding, ""), emlParse); err != nil {
			return err
		}
	}

	if w.cfg.IgnoreAttachments {
		textBody := p.Type == TypeText &&
			(strings.EqualFold(p.Subtype, "PLAIN") || strings.EqualFold(p.Subtype, "HTML"))
		if p.Type != TypeMultipart && !textBody {
			return nil
		}
	}

	treatAsAttachment := isAttachment || emlParse
	if treatAsAttachment {
		if err := w.addAttachment(p, params, data, emlParse); err != nil {
			return err
		}
	} else if cs, ok := params["charset"]; ok && cs != "" {
		data.charset = cs
	}

	if len(p.Parts) > 0 {
		notAttachment := p.Disposition == "" || !dispositionAttachment
		for i, sub := range p.Parts {
			var err error
			switch {
			case p.Type == TypeMessage && strings.EqualFold(p.Subtype, "RFC822") && notAttachment:
				// rfc822 envelope wrapping is transparent to
				// addressing.
				err = w.walk(sub, key, emlParse)
			case p.Type == TypeMultipart && strings.EqualFold(p.Subtype, "ALTERNATIVE") && notAttachment:
				// Alternative branches share the parent's key.
				err = w.walk(sub, key, emlParse)
			case strings.EqualFold(p.Subtype, "RFC822") && dispositionAttachment:
				err = w.walk(sub, childKey(key, i), true)
			default:
				err = w.walk(sub, childKey(key, i), emlParse)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}

	if treatAsAttachment {
		return nil
	}
	switch {
	case p.Type == TypeText && strings.EqualFold(p.Subtype, "PLAIN"):
		if w.msg.textPlain == nil {
			w.msg.textPlain = data
		}
	case p.Type == TypeText && (p.Disposition == "" || !dispositionAttachment):
		if w.msg.textHTML == nil {
			w.msg.textHTML = data
		}
	case p.Type == TypeMessage:
		// A bare embedded message with no further structure reads as
		// plain text.
		if w.msg.textPlain == nil {
			w.msg.textPlain = data
		}
	}
	return nil
}

func (w *walker) addAttachment(p *Part, params map[string]string, data *DataPart, embedded bool) error {
	a := newAttachment(p, params, data, w.cfg.target(), embedded, w.cfg.Store)
	w.msg.AddAttachment(a)
	if w.cfg.Store != nil {
		if _, err := a.SaveToDisk(); err != nil {
			return err
		}
	}
	return nil
}

func childKey(key string, index int) string {
	return key + "." + strconv.Itoa(index+1)
}
