package message

import (
	"bytes"
	"fmt"
	"testing"
)

// fakeFetcher serves canned structures and bodies keyed by positional
// key, counting body fetches so memoization is observable.
type fakeFetcher struct {
	structure *Part
	header    []byte
	bodies    map[string][]byte

	bodyCalls map[string]int
	lastOpts  FetchOptions
}

func (f *fakeFetcher) FetchStructure(num uint32, uid bool) (*Part, error) {
	if f.structure == nil {
		return nil, fmt.Errorf("no structure for message %d", num)
	}
	return f.structure, nil
}

func (f *fakeFetcher) FetchPartBody(num uint32, key string, opts FetchOptions) ([]byte, error) {
	if f.bodyCalls == nil {
		f.bodyCalls = make(map[string]int)
	}
	f.bodyCalls[key]++
	f.lastOpts = opts

	body, ok := f.bodies[key]
	if !ok {
		return nil, fmt.Errorf("no body for part %s", key)
	}
	return body, nil
}

func (f *fakeFetcher) FetchHeader(num uint32, uid bool) ([]byte, error) {
	if f.header == nil {
		return []byte("Subject: test\r\n"), nil
	}
	return f.header, nil
}

func TestDecodeBase64TolerantOfLineBreaks(t *testing.T) {
	withBreaks := decodeBase64([]byte("YWJj\r\nZGVm"))
	without := decodeBase64([]byte("YWJjZGVm"))

	if !bytes.Equal(withBreaks, without) {
		t.Errorf("decode with CRLF = %q, without = %q", withBreaks, without)
	}
	if string(without) != "abcdef" {
		t.Errorf("decoded = %q, want %q", without, "abcdef")
	}
}

func TestDecodeBase64RepairsPadding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"YWJjZA==", "abcd"},
		{"YWJjZA", "abcd"},  // two missing padding bytes
		{"YWJjZGU", "abcde"}, // one missing padding byte
	}
	for _, tt := range tests {
		if got := decodeBase64([]byte(tt.in)); string(got) != tt.want {
			t.Errorf("decodeBase64(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeBase64UnrecoverableReturnsRaw(t *testing.T) {
	// Alphabet-only but structurally invalid: padding in the middle.
	raw := []byte("YW=j")
	if got := decodeBase64(raw); !bytes.Equal(got, raw) {
		t.Errorf("decodeBase64(%q) = %q, want input back", raw, got)
	}
}

func TestDecodeTransferQuotedPrintable(t *testing.T) {
	got := decodeTransfer([]byte("hello=20world=\r\n!"), EncodingQuotedPrintable)
	if string(got) != "hello world!" {
		t.Errorf("decoded = %q, want %q", got, "hello world!")
	}
}

func TestDecodeTransferPassthrough(t *testing.T) {
	raw := []byte("plain content")
	for _, enc := range []Encoding{Encoding7Bit, EncodingBinary, EncodingOther} {
		if got := decodeTransfer(raw, enc); !bytes.Equal(got, raw) {
			t.Errorf("encoding %d altered content: %q", enc, got)
		}
	}
}

func TestDataPartMemoizesFetch(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"1": []byte("body")}}
	d := &DataPart{fetcher: f, num: 7, key: "1", encoding: Encoding7Bit, target: "UTF-8"}

	for i := 0; i < 3; i++ {
		data, err := d.Fetch()
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(data) != "body" {
			t.Fatalf("Fetch = %q, want %q", data, "body")
		}
	}

	if f.bodyCalls["1"] != 1 {
		t.Errorf("part fetched %d times, want 1", f.bodyCalls["1"])
	}
}

func TestDataPartConvertsCharset(t *testing.T) {
	// "café" in ISO-8859-1.
	f := &fakeFetcher{bodies: map[string][]byte{"1": {'c', 'a', 'f', 0xe9}}}
	d := &DataPart{
		fetcher:  f,
		num:      1,
		key:      "1",
		encoding: Encoding7Bit,
		charset:  "ISO-8859-1",
		target:   "UTF-8",
	}

	text, err := d.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "café" {
		t.Errorf("Text = %q, want %q", text, "café")
	}
}

func TestDataPartBase64ThenCharset(t *testing.T) {
	// base64("caf\xe9"), ISO-8859-1.
	f := &fakeFetcher{bodies: map[string][]byte{"2": []byte("Y2Fm6Q==")}}
	d := &DataPart{
		fetcher:  f,
		num:      1,
		key:      "2",
		encoding: EncodingBase64,
		charset:  "ISO-8859-1",
		target:   "UTF-8",
	}

	text, err := d.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "café" {
		t.Errorf("Text = %q, want %q", text, "café")
	}
}

func TestDataPartFetchError(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{}}
	d := &DataPart{fetcher: f, num: 3, key: "9", target: "UTF-8"}

	if _, err := d.Fetch(); err == nil {
		t.Fatal("expected error for missing part")
	}
}
