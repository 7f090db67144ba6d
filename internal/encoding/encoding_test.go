package encoding

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

func TestDecodeWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain passthrough", "hello world", "hello world"},
		{"base64 utf-8", "=?UTF-8?B?0J/RgNC40LLQtdGC?=", "Привет"},
		{"quoted-printable iso-8859-1", "=?ISO-8859-1?Q?caf=E9?=", "café"},
		{"malformed returns input", "=?bogus-charset?B?###?=", "=?bogus-charset?B?###?="},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeWords(tt.in); got != tt.want {
				t.Errorf("DecodeWords(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	for _, name := range []string{"UTF-8", "utf-8", "ISO-8859-1", " windows-1251 "} {
		if !Valid(name) {
			t.Errorf("Valid(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "not-a-charset"} {
		if Valid(name) {
			t.Errorf("Valid(%q) = true, want false", name)
		}
	}
}

func TestConvert(t *testing.T) {
	latin := []byte{'c', 'a', 'f', 0xe9}

	if got := Convert(latin, "ISO-8859-1", "UTF-8"); string(got) != "café" {
		t.Errorf("Convert = %q, want %q", got, "café")
	}

	// Unknown source charset degrades to the input bytes.
	if got := Convert(latin, "no-such-charset", "UTF-8"); !bytes.Equal(got, latin) {
		t.Errorf("unknown charset altered data: %q", got)
	}

	// Same charset on both sides is a no-op.
	utf8 := []byte("déjà vu")
	if got := Convert(utf8, "UTF-8", "utf-8"); !bytes.Equal(got, utf8) {
		t.Errorf("same-charset conversion altered data: %q", got)
	}

	if got := Convert(nil, "ISO-8859-1", "UTF-8"); len(got) != 0 {
		t.Errorf("empty input produced %q", got)
	}
}

func TestConvertToLegacyCharset(t *testing.T) {
	got := Convert([]byte("café"), "UTF-8", "ISO-8859-1")
	want := []byte{'c', 'a', 'f', 0xe9}
	if !bytes.Equal(got, want) {
		t.Errorf("Convert = %x, want %x", got, want)
	}
}

func TestConvertNeverFailsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "data")
		from := rapid.SampledFrom([]string{"UTF-8", "ISO-8859-1", "windows-1251", "bogus"}).Draw(t, "from")

		// Whatever the bytes and charset, some output always comes
		// back; a conversion failure means passthrough, not loss.
		out := Convert(data, from, "UTF-8")
		if data != nil && out == nil {
			t.Fatalf("conversion of %x from %s returned nil", data, from)
		}
	})
}
