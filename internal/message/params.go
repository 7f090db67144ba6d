package message

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nhle/imapmail/internal/encoding"
)

// buildParams merges a part's type parameters with its disposition
// parameters into one map keyed by lower-cased attribute. Type parameter
// values are MIME-decoded when non-empty. Disposition attributes that
// carry an RFC 2231 continuation marker ("filename*0*", "filename*1*",
// ...) are concatenated onto the base attribute in encounter order
// instead of being decoded individually.
func buildParams(p *Part) map[string]string {
	params := make(map[string]string, len(p.Params)+len(p.DispositionParams))

	for _, tp := range p.Params {
		v := tp.Value
		if v != "" {
			v = encoding.DecodeWords(v)
		}
		params[strings.ToLower(tp.Attribute)] = v
	}

	for _, dp := range p.DispositionParams {
		attr := strings.ToLower(dp.Attribute)
		if star := strings.IndexByte(attr, '*'); star >= 0 {
			params[attr[:star]] += dp.Value
		} else {
			params[attr] = dp.Value
		}
	}

	return params
}

// rfc2231Pattern matches an extended parameter value of the form
// charset'language'percent-encoded-data (RFC 2231 section 4).
var rfc2231Pattern = regexp.MustCompile(`^([^']*)'([^']*)'(.*)$`)

// The percent-encoding guard: a candidate only qualifies when every
// character is legal inside URL-encoded data and at least one escape is
// present. Filenames that merely contain apostrophes must come through
// unchanged.
var (
	urlIllegalChar = regexp.MustCompile(`[^%a-zA-Z0-9\-_.+]`)
	urlEscape      = regexp.MustCompile(`%[a-zA-Z0-9]{2}`)
)

func looksURLEncoded(s string) bool {
	return !urlIllegalChar.MatchString(s) && urlEscape.MatchString(s)
}

// DecodeRFC2231 decodes an RFC 2231 extended parameter value into the
// target charset. Values that do not match the charset'lang'data shape,
// or whose data portion does not look percent-encoded, are returned
// unchanged — which also makes decoding an already-decoded plain value
// a no-op.
func DecodeRFC2231(value, target string) string {
	m := rfc2231Pattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}

	charset, data := m[1], m[3]
	if !looksURLEncoded(data) {
		return value
	}

	unescaped, err := url.QueryUnescape(data)
	if err != nil {
		return value
	}

	return string(encoding.Convert([]byte(unescaped), charset, target))
}
