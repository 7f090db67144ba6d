package message

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/imapmail/internal/encoding"

	_ "github.com/emersion/go-message/charset"
)

// IncomingHeader holds the structured fields parsed from a raw header
// block. Recipient maps are keyed by address with the display name as
// value ("" when the address had none).
type IncomingHeader struct {
	Subject     string
	FromName    string
	FromAddress string
	To          map[string]string
	Cc          map[string]string
	Bcc         map[string]string
	ReplyTo     map[string]string
	Date        time.Time
	MessageID   string
	Raw         []byte
}

// ParseHeader parses a raw RFC 5322 header block. Fields that fail to
// parse individually are left at their zero value; only a header block
// that cannot be read at all is an error.
func ParseHeader(raw []byte) (IncomingHeader, error) {
	h := IncomingHeader{Raw: raw}

	// mail.CreateReader wants a full entity, so terminate the header
	// block with the empty line separating it from the (absent) body.
	body := append(bytes.TrimRight(raw, "\r\n"), "\r\n\r\n"...)
	r, err := mail.CreateReader(bytes.NewReader(body))
	if err != nil && r == nil {
		return h, fmt.Errorf("parsing header: %w", err)
	}

	if subj, err := r.Header.Subject(); err == nil {
		h.Subject = subj
	} else {
		h.Subject = encoding.DecodeWords(r.Header.Get("Subject"))
	}
	if date, err := r.Header.Date(); err == nil {
		h.Date = date
	}
	if id, err := r.Header.MessageID(); err == nil {
		h.MessageID = id
	} else {
		h.MessageID = strings.Trim(r.Header.Get("Message-Id"), "<> ")
	}

	if from, err := r.Header.AddressList("From"); err == nil && len(from) > 0 {
		h.FromName = from[0].Name
		h.FromAddress = from[0].Address
	}
	h.To = addressMap(r.Header, "To")
	h.Cc = addressMap(r.Header, "Cc")
	h.Bcc = addressMap(r.Header, "Bcc")
	h.ReplyTo = addressMap(r.Header, "Reply-To")

	return h, nil
}

func addressMap(h mail.Header, field string) map[string]string {
	list, err := h.AddressList(field)
	if err != nil || len(list) == 0 {
		return nil
	}
	out := make(map[string]string, len(list))
	for _, a := range list {
		out[a.Address] = a.Name
	}
	return out
}
