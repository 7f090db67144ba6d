package message

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhle/imapmail/internal/storage"
)

func TestAttachmentNameResolution(t *testing.T) {
	tests := []struct {
		name   string
		part   *Part
		params map[string]string
		want   string
	}{
		{
			name:   "filename wins over name",
			part:   &Part{Type: TypeApplication, Subtype: "PDF"},
			params: map[string]string{"filename": "real.pdf", "name": "other.pdf"},
			want:   "real.pdf",
		},
		{
			name:   "name as fallback",
			part:   &Part{Type: TypeApplication, Subtype: "PDF"},
			params: map[string]string{"filename": "", "name": "fallback.pdf"},
			want:   "fallback.pdf",
		},
		{
			name:   "no parameters falls back to subtype",
			part:   &Part{Type: TypeImage, Subtype: "PNG"},
			params: map[string]string{},
			want:   "png",
		},
		{
			name:   "encoded word filename decoded",
			part:   &Part{Type: TypeApplication, Subtype: "PDF"},
			params: map[string]string{"filename": "=?UTF-8?B?0L7RgtGH0LXRgi5wZGY=?="},
			want:   "отчет.pdf",
		},
		{
			name:   "rfc2231 filename decoded",
			part:   &Part{Type: TypeApplication, Subtype: "PDF"},
			params: map[string]string{"filename": "utf-8''%E2%82%AC%20rates.pdf"},
			want:   "€ rates.pdf",
		},
		{
			name:   "embedded message blob",
			part:   &Part{Type: TypeMessage, Subtype: "RFC822", Disposition: "attachment"},
			params: map[string]string{},
			want:   "rfc822.eml",
		},
		{
			name:   "alternative container blob",
			part:   &Part{Type: TypeMultipart, Subtype: "ALTERNATIVE"},
			params: map[string]string{},
			want:   "alternative.eml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAttachment(tt.part, tt.params, nil, "UTF-8", false, nil)
			if a.Name() != tt.want {
				t.Errorf("Name = %q, want %q", a.Name(), tt.want)
			}
		})
	}
}

func TestAttachmentIDIsContentAddressed(t *testing.T) {
	p := &Part{Type: TypeApplication, Subtype: "PDF", ContentID: "cid1"}
	params := map[string]string{"filename": "doc.pdf"}

	a := newAttachment(p, params, nil, "UTF-8", false, nil)
	b := newAttachment(p, params, nil, "UTF-8", false, nil)
	if a.ID() != b.ID() {
		t.Errorf("same part produced different ids: %q vs %q", a.ID(), b.ID())
	}

	sum := sha256.Sum256([]byte("doc.pdf" + "cid1"))
	if want := hex.EncodeToString(sum[:]); a.ID() != want {
		t.Errorf("ID = %q, want %q", a.ID(), want)
	}

	other := newAttachment(&Part{Type: TypeApplication, Subtype: "PDF", ContentID: "cid2"},
		params, nil, "UTF-8", false, nil)
	if other.ID() == a.ID() {
		t.Error("different content-ids produced the same id")
	}
}

func TestSaveToDiskAssignsPathOnce(t *testing.T) {
	dir, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	f := &fakeFetcher{bodies: map[string][]byte{"1": []byte("contents")}}
	data := &DataPart{fetcher: f, num: 1, key: "1", target: "UTF-8"}
	p := &Part{Type: TypeApplication, Subtype: "PDF"}
	a := newAttachment(p, map[string]string{"filename": "doc.pdf"}, data, "UTF-8", false, dir)

	saved, err := a.SaveToDisk()
	if err != nil {
		t.Fatalf("SaveToDisk: %v", err)
	}
	if !saved {
		t.Fatal("SaveToDisk = false, want true")
	}

	path, ok := a.SavedPath()
	if !ok {
		t.Fatal("SavedPath unset after save")
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(written) != "contents" {
		t.Errorf("saved contents = %q, want %q", written, "contents")
	}

	if _, err := a.SaveToDisk(); err != nil {
		t.Fatalf("second SaveToDisk: %v", err)
	}
	again, _ := a.SavedPath()
	if again != path {
		t.Errorf("second save reassigned path: %q -> %q", path, again)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files on disk, want 1", len(entries))
	}
}

func TestSaveToDiskWithoutStorage(t *testing.T) {
	a := newAttachment(&Part{Type: TypeApplication, Subtype: "PDF"},
		map[string]string{"filename": "doc.pdf"}, nil, "UTF-8", false, nil)

	saved, err := a.SaveToDisk()
	if err != nil {
		t.Fatalf("SaveToDisk: %v", err)
	}
	if saved {
		t.Error("SaveToDisk = true with no storage configured")
	}
	if _, ok := a.SavedPath(); ok {
		t.Error("SavedPath set with no storage configured")
	}
}
