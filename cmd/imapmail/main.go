package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/imapmail/internal/app"
	"github.com/nhle/imapmail/internal/model"
	"github.com/nhle/imapmail/internal/store"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	dataDir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating data dir: %v\n", err)
		os.Exit(1)
	}

	s, err := store.NewSQLiteStore(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	p := tea.NewProgram(app.New(cfg, cfgPath, s), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
