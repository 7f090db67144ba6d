// Package encoding provides best-effort character set conversion and
// MIME encoded-word decoding for message content and header values.
//
// Mail servers are not guaranteed to produce standards-compliant
// encodings, so every function here degrades to returning its input
// rather than failing.
package encoding

import (
	"mime"
	"strings"

	msgcharset "github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// wordDecoder decodes MIME encoded-words (RFC 2047). Charset lookup is
// delegated to go-message, which covers the aliases real mail uses.
var wordDecoder = mime.WordDecoder{CharsetReader: msgcharset.Reader}

// DecodeWords decodes any MIME encoded-words in s. The original string
// is returned unchanged when decoding fails.
func DecodeWords(s string) string {
	if s == "" {
		return ""
	}
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// Valid reports whether name is a charset known to the IANA index.
func Valid(name string) bool {
	if name == "" {
		return false
	}
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	return err == nil && enc != nil
}

// Convert transcodes data from one charset to another. Conversion is
// best-effort: unknown charsets and undecodable byte sequences return
// the bytes already in hand, and characters the target cannot represent
// are replaced rather than dropped with an error.
func Convert(data []byte, from, to string) []byte {
	if len(data) == 0 || from == "" || strings.EqualFold(from, to) {
		return data
	}

	src := lookup(from)
	if src == nil {
		return data
	}

	decoded, _, err := transform.Bytes(src.NewDecoder(), data)
	if err != nil {
		return data
	}

	if to == "" || isUTF8(to) {
		return decoded
	}

	dst := lookup(to)
	if dst == nil {
		return decoded
	}

	out, _, err := transform.Bytes(encoding.ReplaceUnsupported(dst.NewEncoder()), decoded)
	if err != nil {
		return decoded
	}
	return out
}

func lookup(name string) encoding.Encoding {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(name))
	if err != nil || enc == nil {
		return nil
	}
	return enc
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
