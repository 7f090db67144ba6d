package message

// IncomingMessage is the assembled view of one mail: parsed header, at
// most one plain-text and one HTML body part, and the attachments in
// the order they were discovered.
type IncomingMessage struct {
	Header IncomingHeader

	textPlain *DataPart
	textHTML  *DataPart

	order          []string
	attachments    map[string]*Attachment
	hasAttachments bool
}

func newIncomingMessage(h IncomingHeader) *IncomingMessage {
	return &IncomingMessage{
		Header:      h,
		attachments: make(map[string]*Attachment),
	}
}

// HasAttachments reports whether any attachment was ever added, even if
// all have since been removed.
func (m *IncomingMessage) HasAttachments() bool { return m.hasAttachments }

// Attachments returns the attachments in insertion order.
func (m *IncomingMessage) Attachments() []*Attachment {
	out := make([]*Attachment, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.attachments[id])
	}
	return out
}

// Attachment returns the attachment with the given id, if present.
func (m *IncomingMessage) Attachment(id string) (*Attachment, bool) {
	a, ok := m.attachments[id]
	return a, ok
}

// AddAttachment records an attachment. A duplicate id replaces the
// existing entry in place, keeping its original position.
func (m *IncomingMessage) AddAttachment(a *Attachment) {
	if _, ok := m.attachments[a.id]; !ok {
		m.order = append(m.order, a.id)
	}
	m.attachments[a.id] = a
	m.hasAttachments = true
}

// RemoveAttachment deletes the attachment with the given id and reports
// whether it was present. HasAttachments is left untouched.
func (m *IncomingMessage) RemoveAttachment(id string) bool {
	if _, ok := m.attachments[id]; !ok {
		return false
	}
	delete(m.attachments, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// PlainText returns the decoded plain-text body, "" when the message
// has none.
func (m *IncomingMessage) PlainText() (string, error) {
	if m.textPlain == nil {
		return "", nil
	}
	return m.textPlain.Text()
}

// HTML returns the decoded HTML body, "" when the message has none.
func (m *IncomingMessage) HTML() (string, error) {
	if m.textHTML == nil {
		return "", nil
	}
	return m.textHTML.Text()
}

// PlainPart exposes the underlying plain-text data part, nil when
// absent.
func (m *IncomingMessage) PlainPart() *DataPart { return m.textPlain }

// HTMLPart exposes the underlying HTML data part, nil when absent.
func (m *IncomingMessage) HTMLPart() *DataPart { return m.textHTML }
