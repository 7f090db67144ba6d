package mailbox

import (
	"errors"
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/imapmail/internal/message"
	"github.com/nhle/imapmail/internal/storage"
	"github.com/nhle/imapmail/internal/utf7"
)

// AuthError indicates that the server rejected the supplied credentials.
type AuthError struct {
	Username string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Username, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Options configures a mailbox session.
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	// TLS selects implicit TLS; otherwise the connection upgrades via
	// STARTTLS.
	TLS bool

	// ServerEncoding is the charset part content is converted to.
	// Defaults to UTF-8 when empty.
	ServerEncoding string

	// IgnoreAttachments skips attachment content during assembly.
	IgnoreAttachments bool

	// AttachmentsDir, when set, is an existing directory every
	// assembled attachment is persisted into.
	AttachmentsDir string
}

// Mailbox is one authenticated IMAP session. It owns the connection
// exclusively: calls are strictly sequential and the session tracks a
// single selected folder at a time. It is not safe for concurrent use.
type Mailbox struct {
	client *imapclient.Client
	opts   Options
	cfg    message.Config
	folder string
}

// Dial connects to the server, authenticates, and returns the session.
// The caller is responsible for calling Close.
func Dial(opts Options) (*Mailbox, error) {
	addr := opts.Host + ":" + opts.Port

	var client *imapclient.Client
	var err error

	if opts.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(opts.Username, opts.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Username: opts.Username,
			Message:  fmt.Sprintf("authentication failed: %v", err),
		}
	}

	cfg := message.Config{
		ServerEncoding:    opts.ServerEncoding,
		IgnoreAttachments: opts.IgnoreAttachments,
		UID:               true,
	}
	if opts.AttachmentsDir != "" {
		dir, err := storage.New(opts.AttachmentsDir)
		if err != nil {
			_ = client.Logout().Wait()
			return nil, err
		}
		cfg.Store = dir
	}

	return &Mailbox{client: client, opts: opts, cfg: cfg}, nil
}

// Close logs out and drops the connection.
func (m *Mailbox) Close() error {
	return m.client.Logout().Wait()
}

// SelectFolder makes the named folder the session's current mailbox and
// returns its message count. Folder names are UTF-8 and encoded to the
// wire form internally.
func (m *Mailbox) SelectFolder(name string) (uint32, error) {
	data, err := m.client.Select(utf7.Encode(name), nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("selecting folder %q: %w", name, err)
	}
	m.folder = name
	return data.NumMessages, nil
}

// Folder returns the currently selected folder, "" before the first
// select.
func (m *Mailbox) Folder() string {
	return m.folder
}
