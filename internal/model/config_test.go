package model

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Accounts) != 0 {
		t.Errorf("default config has %d accounts", len(cfg.Accounts))
	}
	if cfg.Mail.ServerEncoding != "UTF-8" {
		t.Errorf("ServerEncoding = %q", cfg.Mail.ServerEncoding)
	}
	if cfg.Display.PageSize != 50 {
		t.Errorf("PageSize = %d", cfg.Display.PageSize)
	}
}

func TestLoadConfigAppliesAccountDefaults(t *testing.T) {
	path := writeConfig(t, `
accounts:
  - id: a1
    name: Work
    host: imap.example.com
    port: "993"
    username: me@example.com
    tls: true
  - id: a2
    name: Old
    host: imap.old.example.com
    port: "993"
    username: old@example.com
    tls: true
    enabled: false
    folder: Archive
    poll_interval_sec: 30
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Accounts) != 2 {
		t.Fatalf("got %d accounts", len(cfg.Accounts))
	}

	a1 := cfg.Accounts[0]
	if !a1.Enabled {
		t.Error("unset enabled should default to true")
	}
	if a1.Folder != "INBOX" {
		t.Errorf("Folder = %q, want INBOX", a1.Folder)
	}
	if a1.PollIntervalSec != 120 {
		t.Errorf("PollIntervalSec = %d, want 120", a1.PollIntervalSec)
	}

	a2 := cfg.Accounts[1]
	if a2.Enabled {
		t.Error("explicit enabled: false was overridden")
	}
	if a2.Folder != "Archive" || a2.PollIntervalSec != 30 {
		t.Errorf("explicit values lost: %+v", a2)
	}
}

func TestValidateRejectsBadEncoding(t *testing.T) {
	path := writeConfig(t, `
mail:
  server_encoding: not-a-charset
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig accepted an unknown server encoding")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &AppConfig{
		Accounts: []AccountConfig{{
			ID:       "a1",
			Name:     "Work",
			Host:     "imap.example.com",
			Port:     "993",
			Username: "me@example.com",
			TLS:      true,
			Folder:   "INBOX",
			Enabled:  true,
		}},
		Mail:    MailConfig{ServerEncoding: "UTF-8"},
		Display: DisplayConfig{Theme: "default", PageSize: 25},
	}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(loaded.Accounts) != 1 || loaded.Accounts[0].Host != "imap.example.com" {
		t.Errorf("accounts lost: %+v", loaded.Accounts)
	}
	if loaded.Display.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", loaded.Display.PageSize)
	}
}
