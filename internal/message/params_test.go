package message

import (
	"testing"

	"pgregory.net/rapid"
)

func TestBuildParamsMergesAndLowercases(t *testing.T) {
	p := &Part{
		Params: []Param{
			{Attribute: "CHARSET", Value: "utf-8"},
			{Attribute: "Name", Value: "report.pdf"},
		},
		DispositionParams: []Param{
			{Attribute: "FILENAME", Value: "invoice.pdf"},
		},
	}

	params := buildParams(p)
	if params["charset"] != "utf-8" {
		t.Errorf("charset = %q, want %q", params["charset"], "utf-8")
	}
	if params["name"] != "report.pdf" {
		t.Errorf("name = %q, want %q", params["name"], "report.pdf")
	}
	if params["filename"] != "invoice.pdf" {
		t.Errorf("filename = %q, want %q", params["filename"], "invoice.pdf")
	}
}

func TestBuildParamsDecodesTypeParamWords(t *testing.T) {
	p := &Part{
		Params: []Param{
			{Attribute: "name", Value: "=?UTF-8?B?0L7RgtGH0LXRgi5wZGY=?="},
		},
	}

	params := buildParams(p)
	if params["name"] != "отчет.pdf" {
		t.Errorf("name = %q, want %q", params["name"], "отчет.pdf")
	}
}

func TestBuildParamsSplicesContinuations(t *testing.T) {
	p := &Part{
		Disposition: "attachment",
		DispositionParams: []Param{
			{Attribute: "filename*0*", Value: "utf-8''very%20long"},
			{Attribute: "filename*1*", Value: "%20file%20name"},
			{Attribute: "filename*2*", Value: ".pdf"},
		},
	}

	params := buildParams(p)
	want := "utf-8''very%20long%20file%20name.pdf"
	if params["filename"] != want {
		t.Errorf("filename = %q, want %q", params["filename"], want)
	}
}

func TestDecodeRFC2231(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"extended value", "utf-8''%E2%82%AC%20rates.pdf", "€ rates.pdf"},
		{"plain filename untouched", "report.pdf", "report.pdf"},
		{"single apostrophe untouched", "it's a file.pdf", "it's a file.pdf"},
		{"two apostrophes but no escapes untouched", "rock'n'roll.mp3", "rock'n'roll.mp3"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeRFC2231(tt.value, "UTF-8"); got != tt.want {
				t.Errorf("DecodeRFC2231(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

// Decoding an already-decoded value must be a no-op: the assembler has
// no way to know whether a filename came through a continuation that
// was already unescaped.
func TestDecodeRFC2231Idempotent(t *testing.T) {
	once := DecodeRFC2231("utf-8''%E2%82%AC%20rates.pdf", "UTF-8")
	twice := DecodeRFC2231(once, "UTF-8")
	if once != twice {
		t.Errorf("second decode changed value: %q -> %q", once, twice)
	}

	rapid.Check(t, func(t *rapid.T) {
		// Filenames without the charset'lang' shape never decode.
		name := rapid.StringMatching(`[a-zA-Z0-9 _.-]{1,40}`).Draw(t, "name")
		if got := DecodeRFC2231(name, "UTF-8"); got != name {
			t.Fatalf("plain value changed: %q -> %q", name, got)
		}
	})
}
