package mailbox

import (
	"testing"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/imapmail/internal/message"
)

func TestPartFromStructureSinglePart(t *testing.T) {
	bs := &imap.BodyStructureSinglePart{
		Type:     "text",
		Subtype:  "plain",
		Encoding: "quoted-printable",
		Params:   map[string]string{"charset": "utf-8"},
		ID:       "<part1@example.com>",
	}

	p, err := partFromStructure(bs, "1")
	if err != nil {
		t.Fatalf("partFromStructure: %v", err)
	}

	if p.Type != message.TypeText {
		t.Errorf("Type = %v, want TypeText", p.Type)
	}
	if p.Subtype != "PLAIN" {
		t.Errorf("Subtype = %q, want %q", p.Subtype, "PLAIN")
	}
	if p.Encoding != message.EncodingQuotedPrintable {
		t.Errorf("Encoding = %v, want quoted-printable", p.Encoding)
	}
	if p.ContentID != "part1@example.com" {
		t.Errorf("ContentID = %q, want brackets stripped", p.ContentID)
	}
	if len(p.Params) != 1 || p.Params[0].Attribute != "charset" {
		t.Errorf("Params = %v", p.Params)
	}
}

func TestPartFromStructureDisposition(t *testing.T) {
	bs := &imap.BodyStructureSinglePart{
		Type:     "application",
		Subtype:  "pdf",
		Encoding: "base64",
		Extended: &imap.BodyStructureSinglePartExt{
			Disposition: &imap.BodyStructureDisposition{
				Value:  "attachment",
				Params: map[string]string{"filename": "doc.pdf"},
			},
		},
	}

	p, err := partFromStructure(bs, "2")
	if err != nil {
		t.Fatalf("partFromStructure: %v", err)
	}
	if p.Disposition != "attachment" {
		t.Errorf("Disposition = %q", p.Disposition)
	}
	if len(p.DispositionParams) != 1 || p.DispositionParams[0].Value != "doc.pdf" {
		t.Errorf("DispositionParams = %v", p.DispositionParams)
	}
}

func TestPartFromStructureDispositionWithoutValue(t *testing.T) {
	bs := &imap.BodyStructureSinglePart{
		Type:    "application",
		Subtype: "pdf",
		Extended: &imap.BodyStructureSinglePartExt{
			Disposition: &imap.BodyStructureDisposition{
				Params: map[string]string{"filename": "doc.pdf"},
			},
		},
	}

	_, err := partFromStructure(bs, "2")
	if !message.IsUnexpectedStructure(err) {
		t.Fatalf("err = %v, want UnexpectedStructureError", err)
	}
}

func TestPartFromStructureMultiPart(t *testing.T) {
	bs := &imap.BodyStructureMultiPart{
		Subtype: "mixed",
		Children: []imap.BodyStructure{
			&imap.BodyStructureSinglePart{Type: "text", Subtype: "plain"},
			&imap.BodyStructureSinglePart{Type: "image", Subtype: "png"},
		},
	}

	p, err := partFromStructure(bs, "")
	if err != nil {
		t.Fatalf("partFromStructure: %v", err)
	}
	if p.Type != message.TypeMultipart || p.Subtype != "MIXED" {
		t.Errorf("got %v/%s", p.Type, p.Subtype)
	}
	if len(p.Parts) != 2 {
		t.Fatalf("got %d children, want 2", len(p.Parts))
	}
	if p.Parts[1].Type != message.TypeImage {
		t.Errorf("second child type = %v", p.Parts[1].Type)
	}
}

func TestPartFromStructureEmptyMultiPart(t *testing.T) {
	_, err := partFromStructure(&imap.BodyStructureMultiPart{Subtype: "mixed"}, "1")
	if !message.IsUnexpectedStructure(err) {
		t.Fatalf("err = %v, want UnexpectedStructureError", err)
	}
}

func TestPartFromStructureEmbeddedMessage(t *testing.T) {
	bs := &imap.BodyStructureSinglePart{
		Type:     "message",
		Subtype:  "rfc822",
		Encoding: "7bit",
		MessageRFC822: &imap.BodyStructureMessageRFC822{
			BodyStructure: &imap.BodyStructureSinglePart{Type: "text", Subtype: "plain"},
		},
	}

	p, err := partFromStructure(bs, "2")
	if err != nil {
		t.Fatalf("partFromStructure: %v", err)
	}
	if p.Type != message.TypeMessage {
		t.Errorf("Type = %v, want TypeMessage", p.Type)
	}
	if len(p.Parts) != 1 || p.Parts[0].Subtype != "PLAIN" {
		t.Errorf("embedded structure not attached as child: %v", p.Parts)
	}
}

func TestOrderedParamsRestoresContinuationOrder(t *testing.T) {
	params := orderedParams(map[string]string{
		"filename*2*": ".pdf",
		"filename*0*": "utf-8''part%20",
		"filename*1*": "one",
		"size":        "1024",
	})

	var attrs []string
	for _, p := range params {
		attrs = append(attrs, p.Attribute)
	}

	want := []string{"filename*0*", "filename*1*", "filename*2*", "size"}
	if len(attrs) != len(want) {
		t.Fatalf("got %v, want %v", attrs, want)
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Fatalf("got %v, want %v", attrs, want)
		}
	}
}

func TestSplitContinuation(t *testing.T) {
	tests := []struct {
		in       string
		wantBase string
		wantNum  int
	}{
		{"filename", "filename", -1},
		{"filename*0*", "filename", 0},
		{"filename*12*", "filename", 12},
		{"filename*3", "filename", 3},
		{"name*x", "name", -1},
	}
	for _, tt := range tests {
		base, num := splitContinuation(tt.in)
		if base != tt.wantBase || num != tt.wantNum {
			t.Errorf("splitContinuation(%q) = %q, %d; want %q, %d",
				tt.in, base, num, tt.wantBase, tt.wantNum)
		}
	}
}

func TestPartEncodingDefaults(t *testing.T) {
	if got := partEncoding(""); got != message.Encoding7Bit {
		t.Errorf("empty encoding = %v, want 7bit", got)
	}
	if got := partEncoding("BASE64"); got != message.EncodingBase64 {
		t.Errorf("BASE64 = %v", got)
	}
	if got := partEncoding("x-unknown"); got != message.EncodingOther {
		t.Errorf("unknown = %v", got)
	}
}
