package store

import (
	"context"
	"time"

	"github.com/nhle/imapmail/internal/mailbox"
)

// EnvelopeFilter controls filtering, sorting, and pagination for cached
// envelope queries.
type EnvelopeFilter struct {
	Folder   string
	Unseen   *bool
	Flagged  *bool
	Query    *string // search subject + sender
	SortBy   string  // "date", "from", "subject"
	SortDesc bool
	Limit    int
	Offset   int
}

// AttachmentRecord tracks an attachment extracted from a cached message,
// including where it was saved on disk, if anywhere.
type AttachmentRecord struct {
	AccountID    string
	Folder       string
	UID          uint32
	AttachmentID string
	Name         string
	ContentID    string
	Disposition  string
	Size         int64
	SavedPath    string
	SavedAt      time.Time
}

// Store defines the persistence interface for the local envelope cache
// and the attachment ledger.
type Store interface {
	UpsertEnvelopes(ctx context.Context, accountID, folder string, envs []mailbox.Envelope) error
	GetEnvelopes(ctx context.Context, accountID string, filter EnvelopeFilter) ([]mailbox.Envelope, error)
	GetEnvelopeCount(ctx context.Context, accountID string, filter EnvelopeFilter) (int, error)
	DeleteEnvelope(ctx context.Context, accountID, folder string, uid uint32) error

	RecordAttachment(ctx context.Context, rec AttachmentRecord) error
	GetAttachments(ctx context.Context, accountID, folder string, uid uint32) ([]AttachmentRecord, error)

	Close() error
}
