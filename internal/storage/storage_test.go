package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRequiresDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("New succeeded on a missing path")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file); err == nil {
		t.Error("New succeeded on a regular file")
	}
}

func TestSaveUsesGeneratedName(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := d.Save("../../etc/passwd.txt", []byte("data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if filepath.Dir(path) != root {
		t.Errorf("saved outside storage root: %q", path)
	}
	base := filepath.Base(path)
	if strings.Contains(base, "passwd") {
		t.Errorf("display name leaked into file name: %q", base)
	}
	if !strings.HasSuffix(base, ".txt") {
		t.Errorf("extension not preserved: %q", base)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("contents = %q, want %q", got, "data")
	}
}

func TestSaveDistinctFiles(t *testing.T) {
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, err := d.Save("same.pdf", []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Save("same.pdf", []byte("two"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("two saves collided on %q", a)
	}
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", ".pdf"},
		{"archive.tar.gz", ".gz"},
		{"no extension", ""},
		{"dotfile.", ""},
		{"weird.p%d$f", ".pdf"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := safeExt(tt.in); got != tt.want {
			t.Errorf("safeExt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateName(t *testing.T) {
	short := "name.pdf"
	if got := truncateName(short); got != short {
		t.Errorf("truncateName(%q) = %q", short, got)
	}

	long := strings.Repeat("a", 300) + ".pdf"
	got := truncateName(long)
	if len(got) != maxNameLen {
		t.Errorf("len = %d, want %d", len(got), maxNameLen)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("extension lost: %q", got)
	}
}
