package message

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nhle/imapmail/internal/encoding"
	"github.com/nhle/imapmail/internal/storage"
)

// Attachment is one downloadable file derived from a message part. Its
// identity is a content hash of name plus content-id, so re-assembling
// the same message yields the same ids and re-processing stays
// idempotent.
type Attachment struct {
	id          string
	name        string
	contentID   string
	disposition string
	charset     string
	embedded    bool

	data *DataPart
	dir  *storage.Dir

	savedPath string
}

// ID returns the attachment's stable identifier.
func (a *Attachment) ID() string { return a.id }

// Name returns the decoded display name.
func (a *Attachment) Name() string { return a.name }

// ContentID returns the part's content-id, "" when absent.
func (a *Attachment) ContentID() string { return a.contentID }

// Disposition returns the part's disposition, "" when absent.
func (a *Attachment) Disposition() string { return a.disposition }

// Charset returns the charset parameter reported for the part.
func (a *Attachment) Charset() string { return a.charset }

// Embedded reports whether the attachment was extracted from a nested
// message/rfc822 attachment rather than being a native part.
func (a *Attachment) Embedded() bool { return a.embedded }

// SavedPath returns the on-disk path and whether one has been assigned.
func (a *Attachment) SavedPath() (string, bool) {
	return a.savedPath, a.savedPath != ""
}

// Contents returns the attachment bytes, fetching and decoding them on
// first use.
func (a *Attachment) Contents() ([]byte, error) {
	return a.data.Fetch()
}

// SaveToDisk persists the attachment into the configured storage
// directory. The path is assigned exactly once; repeat calls are no-ops.
// It reports false when no storage directory is configured.
func (a *Attachment) SaveToDisk() (bool, error) {
	if a.dir == nil {
		return false, nil
	}
	if a.savedPath != "" {
		return true, nil
	}

	data, err := a.Contents()
	if err != nil {
		return false, err
	}

	path, err := a.dir.Save(a.name, data)
	if err != nil {
		return false, fmt.Errorf("saving attachment %q: %w", a.name, err)
	}
	a.savedPath = path
	return true, nil
}

// newAttachment derives an attachment from a classified part.
//
// Name resolution order: embedded messages dispositioned as attachments
// (and alternative containers) synthesize "<subtype>.eml"; parts with
// neither a filename nor a name parameter fall back to the bare subtype;
// otherwise the filename parameter wins over name, then the value is
// MIME-decoded and RFC 2231-decoded.
func newAttachment(p *Part, params map[string]string, data *DataPart, target string, embedded bool, dir *storage.Dir) *Attachment {
	attachmentDisposition := strings.EqualFold(p.Disposition, "attachment")

	var name string
	switch {
	case (strings.EqualFold(p.Subtype, "RFC822") && attachmentDisposition) ||
		strings.EqualFold(p.Subtype, "ALTERNATIVE"):
		name = strings.ToLower(p.Subtype) + ".eml"
	case params["filename"] == "" && params["name"] == "":
		name = strings.ToLower(p.Subtype)
	default:
		name = params["filename"]
		if name == "" {
			name = params["name"]
		}
		name = encoding.DecodeWords(name)
		name = DecodeRFC2231(name, target)
	}

	sum := sha256.Sum256([]byte(name + p.ContentID))

	return &Attachment{
		id:          hex.EncodeToString(sum[:]),
		name:        name,
		contentID:   p.ContentID,
		disposition: p.Disposition,
		charset:     params["charset"],
		embedded:    embedded,
		data:        data,
		dir:         dir,
	}
}
