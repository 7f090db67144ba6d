package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/quotedprintable"

	"github.com/nhle/imapmail/internal/encoding"
)

// FetchOptions controls how part content is retrieved from the mail
// store.
type FetchOptions struct {
	// Peek suppresses the \Seen side effect of the fetch.
	Peek bool
	// UID addresses the message by UID instead of sequence number.
	UID bool
}

// Fetcher is the contract the assembler consumes from the mailbox
// layer. Implementations own the protocol session; all calls are
// strictly sequential.
type Fetcher interface {
	// FetchStructure retrieves the message's MIME part tree.
	FetchStructure(num uint32, uid bool) (*Part, error)

	// FetchPartBody retrieves the raw bytes of one part. The WholePart
	// key addresses the entire body rather than a numbered sub-part.
	FetchPartBody(num uint32, key string, opts FetchOptions) ([]byte, error)

	// FetchHeader retrieves the raw RFC 5322 header block.
	FetchHeader(num uint32, uid bool) ([]byte, error)
}

// DataPart is a lazy handle on one part's content. The first Fetch
// retrieves the raw bytes, transfer-decodes them, and converts the
// charset; the result is memoized and the network is never hit again.
// A DataPart backs either one body slot or one attachment, never both.
type DataPart struct {
	fetcher  Fetcher
	num      uint32
	key      string
	encoding Encoding
	charset  string
	target   string
	opts     FetchOptions

	fetched bool
	data    []byte
}

// Key returns the part's positional key.
func (d *DataPart) Key() string {
	return d.key
}

// Charset returns the charset stamped on this part, "" when none was
// reported.
func (d *DataPart) Charset() string {
	return d.charset
}

// Fetch returns the decoded part content, retrieving it on first use.
// Decode problems never fail the call; only the fetch itself can.
func (d *DataPart) Fetch() ([]byte, error) {
	if d.fetched {
		return d.data, nil
	}

	raw, err := d.fetcher.FetchPartBody(d.num, d.key, d.opts)
	if err != nil {
		return nil, fmt.Errorf("fetching part %s of message %d: %w", d.key, d.num, err)
	}

	data := decodeTransfer(raw, d.encoding)
	if d.charset != "" {
		data = encoding.Convert(data, d.charset, d.target)
	}

	d.data = data
	d.fetched = true
	return d.data, nil
}

// Text returns the decoded content as a string, "" when the part had no
// data.
func (d *DataPart) Text() (string, error) {
	data, err := d.Fetch()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeTransfer applies the content-transfer-encoding. Decoding is
// deliberately lossy-tolerant: servers routinely emit malformed
// encodings, so failures degrade to passing through what was received.
func decodeTransfer(raw []byte, enc Encoding) []byte {
	if len(raw) == 0 {
		return raw
	}

	switch enc {
	case EncodingBase64:
		return decodeBase64(raw)
	case EncodingQuotedPrintable:
		out, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(raw)))
		if err != nil && len(out) == 0 {
			return raw
		}
		return out
	case Encoding8Bit:
		// Normalize stray encoded-words the way legacy stores do for
		// 8-bit content.
		return []byte(encoding.DecodeWords(string(raw)))
	case EncodingBinary:
		return raw
	default:
		// 7bit, other, unspecified: already literal.
		return raw
	}
}

// decodeBase64 strips every byte outside the base64 alphabet before
// decoding. Some servers inject soft line breaks or whitespace into
// base64 bodies; stripping first makes those harmless.
func decodeBase64(raw []byte) []byte {
	cleaned := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' ||
			b == '+' || b == '/' || b == '=' {
			cleaned = append(cleaned, b)
		}
	}

	// Repair missing padding; a remainder of one byte can never decode.
	switch len(cleaned) % 4 {
	case 1:
		cleaned = cleaned[:len(cleaned)-1]
	case 2:
		cleaned = append(cleaned, '=', '=')
	case 3:
		cleaned = append(cleaned, '=')
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(cleaned)))
	n, err := base64.StdEncoding.Decode(decoded, cleaned)
	if err != nil {
		return raw
	}
	return decoded[:n]
}
