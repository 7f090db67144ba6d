package mailbox

import (
	"fmt"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/imapmail/internal/utf7"
)

// FolderStatus summarizes one folder without selecting it.
type FolderStatus struct {
	Name        string
	Messages    uint32
	Unseen      uint32
	UIDNext     uint32
	UIDValidity uint32
}

// Folders lists all folders on the server, depth first in server order.
// Names arrive in the modified UTF-7 wire form and are decoded back to
// UTF-8; a name that fails to decode is returned as-is.
func (m *Mailbox) Folders() ([]string, error) {
	list, err := m.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}

	names := make([]string, 0, len(list))
	for _, data := range list {
		name, err := utf7.Decode(data.Mailbox)
		if err != nil {
			name = data.Mailbox
		}
		names = append(names, name)
	}
	return names, nil
}

// CreateFolder creates a new folder.
func (m *Mailbox) CreateFolder(name string) error {
	if err := m.client.Create(utf7.Encode(name), nil).Wait(); err != nil {
		return fmt.Errorf("creating folder %q: %w", name, err)
	}
	return nil
}

// DeleteFolder removes a folder. The currently selected folder cannot
// be deleted on most servers; select another one first.
func (m *Mailbox) DeleteFolder(name string) error {
	if err := m.client.Delete(utf7.Encode(name)).Wait(); err != nil {
		return fmt.Errorf("deleting folder %q: %w", name, err)
	}
	return nil
}

// RenameFolder renames a folder.
func (m *Mailbox) RenameFolder(oldName, newName string) error {
	cmd := m.client.Rename(utf7.Encode(oldName), utf7.Encode(newName), nil)
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("renaming folder %q to %q: %w", oldName, newName, err)
	}
	return nil
}

// SetSubscribed subscribes to or unsubscribes from a folder.
func (m *Mailbox) SetSubscribed(name string, subscribed bool) error {
	var err error
	if subscribed {
		err = m.client.Subscribe(utf7.Encode(name)).Wait()
	} else {
		err = m.client.Unsubscribe(utf7.Encode(name)).Wait()
	}
	if err != nil {
		return fmt.Errorf("changing subscription of %q: %w", name, err)
	}
	return nil
}

// FolderInfo queries STATUS for a folder.
func (m *Mailbox) FolderInfo(name string) (FolderStatus, error) {
	opts := &imap.StatusOptions{
		NumMessages: true,
		NumUnseen:   true,
		UIDNext:     true,
		UIDValidity: true,
	}
	data, err := m.client.Status(utf7.Encode(name), opts).Wait()
	if err != nil {
		return FolderStatus{}, fmt.Errorf("folder status %q: %w", name, err)
	}

	st := FolderStatus{
		Name:        name,
		UIDNext:     uint32(data.UIDNext),
		UIDValidity: data.UIDValidity,
	}
	if data.NumMessages != nil {
		st.Messages = *data.NumMessages
	}
	if data.NumUnseen != nil {
		st.Unseen = *data.NumUnseen
	}
	return st, nil
}
