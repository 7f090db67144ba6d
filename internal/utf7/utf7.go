// Package utf7 implements the modified UTF-7 encoding that IMAP uses
// for mailbox names (RFC 3501 section 5.1.3). Printable ASCII passes
// through untouched, "&" is escaped as "&-", and everything else is
// carried as base64-encoded UTF-16BE between "&" and "-".
package utf7

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf16"
)

// b64 is the modified base64 alphabet: "," replaces "/" and padding is
// never written.
var b64 = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,",
).WithPadding(base64.NoPadding)

// Encode converts a UTF-8 mailbox name to its modified UTF-7 form.
func Encode(name string) string {
	var out strings.Builder
	out.Grow(len(name))

	var units []uint16
	flush := func() {
		if len(units) == 0 {
			return
		}
		raw := make([]byte, 0, len(units)*2)
		for _, u := range units {
			raw = append(raw, byte(u>>8), byte(u))
		}
		out.WriteByte('&')
		out.WriteString(b64.EncodeToString(raw))
		out.WriteByte('-')
		units = units[:0]
	}

	for _, r := range name {
		switch {
		case r == '&':
			flush()
			out.WriteString("&-")
		case r >= 0x20 && r <= 0x7e:
			flush()
			out.WriteRune(r)
		default:
			units = utf16.AppendRune(units, r)
		}
	}
	flush()

	return out.String()
}

// Decode converts a modified UTF-7 mailbox name back to UTF-8.
func Decode(name string) (string, error) {
	var out strings.Builder
	out.Grow(len(name))

	for i := 0; i < len(name); {
		if name[i] != '&' {
			out.WriteByte(name[i])
			i++
			continue
		}

		end := strings.IndexByte(name[i+1:], '-')
		if end < 0 {
			return "", fmt.Errorf("utf7: unterminated shift sequence at byte %d", i)
		}

		segment := name[i+1 : i+1+end]
		i += end + 2

		if segment == "" {
			// "&-" is the escape for a literal ampersand.
			out.WriteByte('&')
			continue
		}

		decoded, err := decodeSegment(segment)
		if err != nil {
			return "", err
		}
		out.WriteString(decoded)
	}

	return out.String(), nil
}

// decodeSegment decodes one base64 run into UTF-8.
func decodeSegment(segment string) (string, error) {
	raw, err := b64.DecodeString(segment)
	if err != nil {
		return "", fmt.Errorf("utf7: invalid base64 segment %q: %w", segment, err)
	}
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("utf7: truncated UTF-16 data in segment %q", segment)
	}

	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
	}

	runes := utf16.Decode(units)
	for _, r := range runes {
		if r == 0xfffd {
			return "", fmt.Errorf("utf7: invalid surrogate pair in segment %q", segment)
		}
	}
	return string(runes), nil
}
