package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/nhle/imapmail/internal/encoding"
)

// AccountConfig holds the connection settings for one IMAP account.
// The password is never stored here; it lives in the system keyring
// keyed by the account ID.
type AccountConfig struct {
	// ID is the unique identifier for this account.
	ID string `mapstructure:"id" yaml:"id"`

	// Name is the user-defined label for this account.
	Name string `mapstructure:"name" yaml:"name"`

	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`

	// TLS selects implicit TLS; otherwise STARTTLS is used.
	TLS bool `mapstructure:"tls" yaml:"tls"`

	// Folder is the folder selected after connecting.
	Folder string `mapstructure:"folder" yaml:"folder"`

	// Enabled controls whether this account is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PollIntervalSec is how often (in seconds) to fetch updates.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// MailConfig holds message-assembly preferences shared by all accounts.
type MailConfig struct {
	// ServerEncoding is the charset message content is converted to.
	ServerEncoding string `mapstructure:"server_encoding" yaml:"server_encoding"`

	// IgnoreAttachments skips attachment content when assembling.
	IgnoreAttachments bool `mapstructure:"ignore_attachments" yaml:"ignore_attachments"`

	// AttachmentsDir, when set, is where assembled attachments are
	// persisted.
	AttachmentsDir string `mapstructure:"attachments_dir" yaml:"attachments_dir"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Accounts []AccountConfig `mapstructure:"accounts" yaml:"accounts"`
	Mail     MailConfig      `mapstructure:"mail" yaml:"mail"`
	Display  DisplayConfig   `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/imapmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "imapmail", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Accounts: []AccountConfig{},
		Mail: MailConfig{
			ServerEncoding: "UTF-8",
		},
		Display: DisplayConfig{
			Theme:    "default",
			PageSize: 50,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mail.server_encoding", "UTF-8")
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.page_size", 50)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Apply defaults for each account entry.
	for i := range cfg.Accounts {
		if cfg.Accounts[i].PollIntervalSec == 0 {
			cfg.Accounts[i].PollIntervalSec = 120
		}
		if cfg.Accounts[i].Folder == "" {
			cfg.Accounts[i].Folder = "INBOX"
		}
		if !cfg.Accounts[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset as true.
			// We use the raw viper value to distinguish explicit false from absent.
			key := fmt.Sprintf("accounts.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Accounts[i].Enabled = true
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise only fail deep inside a
// message fetch: the target charset must be a known encoding and the
// attachments directory must exist.
func (c *AppConfig) Validate() error {
	if cs := c.Mail.ServerEncoding; cs != "" && !encoding.Valid(cs) {
		return fmt.Errorf("invalid server encoding %q", cs)
	}
	if dir := c.Mail.AttachmentsDir; dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("attachments dir %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("attachments dir %s is not a directory", dir)
		}
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("accounts", cfg.Accounts)
	v.Set("mail", cfg.Mail)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
