package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "imapmail"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/imapmail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("imapmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// passwordKey namespaces account passwords inside the keyring.
func passwordKey(accountID string) string {
	return "password:" + accountID
}

// Password retrieves the stored IMAP password for an account.
func Password(accountID string) (string, error) {
	return Get(passwordKey(accountID))
}

// SetPassword stores the IMAP password for an account.
func SetPassword(accountID, password string) error {
	return Set(passwordKey(accountID), password)
}

// DeletePassword removes an account's stored password.
func DeletePassword(accountID string) error {
	return Delete(passwordKey(accountID))
}
