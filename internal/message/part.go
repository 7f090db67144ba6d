package message

import "strconv"

// PartType is the structural type code the mail store reports for a
// part. The numbering follows the classic c-client convention, which is
// what positional-key consumers were built against.
type PartType int

const (
	TypeText PartType = iota
	TypeMultipart
	TypeMessage
	TypeApplication
	TypeAudio
	TypeImage
	TypeVideo
	TypeModel
	TypeOther
)

// String returns a lower-case name for the type code.
func (t PartType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeMultipart:
		return "multipart"
	case TypeMessage:
		return "message"
	case TypeApplication:
		return "application"
	case TypeAudio:
		return "audio"
	case TypeImage:
		return "image"
	case TypeVideo:
		return "video"
	case TypeModel:
		return "model"
	default:
		return "other"
	}
}

// Encoding is a part's content-transfer-encoding.
type Encoding int

const (
	Encoding7Bit Encoding = iota
	Encoding8Bit
	EncodingBinary
	EncodingBase64
	EncodingQuotedPrintable
	EncodingOther
)

// Param is one attribute/value pair attached to a part. Parameters keep
// their reported order: RFC 2231 continuation pieces must splice back
// together in the order they were encountered.
type Param struct {
	Attribute string
	Value     string
}

// Part is the server-reported description of one MIME part. A part with
// a non-empty Parts slice is a container and never carries fetchable
// content itself; leaves do.
type Part struct {
	Type     PartType
	Subtype  string // upper-case, e.g. "PLAIN", "RFC822"
	Encoding Encoding

	// Disposition is "attachment", "inline", or "" when the part has no
	// Content-Disposition at all.
	Disposition string

	Params            []Param
	DispositionParams []Param

	// ContentID is the Content-ID without angle brackets, "" when absent.
	ContentID string

	Parts []*Part
}

// WholePart is the positional key addressing the entire message body
// rather than a numbered sub-part.
const WholePart = "0"

// FlattenedPart pairs a positional key with its part descriptor.
type FlattenedPart struct {
	Key  string
	Part *Part
}

// Flatten linearizes a message's top-level parts into addressable
// entries, depth first and left to right. Sub-part slices are cleared on
// emitted entries: the tree is destructively linearized so nothing gets
// processed twice.
//
// The key scheme is a compatibility contract with existing positional
// key consumers and must not be "fixed": siblings are numbered from 1; a
// type-code-2 container restarts its children at 0 under an extended
// prefix; and one level below such a container the prefix stops growing.
func Flatten(parts []*Part) []FlattenedPart {
	var out []FlattenedPart
	flattenInto(&out, parts, "", 1, true)
	return out
}

func flattenInto(out *[]FlattenedPart, parts []*Part, prefix string, index int, fullPrefix bool) {
	for _, p := range parts {
		key := prefix + strconv.Itoa(index)
		*out = append(*out, FlattenedPart{Key: key, Part: p})

		if len(p.Parts) > 0 {
			switch {
			case p.Type == TypeMessage:
				flattenInto(out, p.Parts, key+".", 0, false)
			case fullPrefix:
				flattenInto(out, p.Parts, key+".", 1, true)
			default:
				flattenInto(out, p.Parts, key, 1, false)
			}
			p.Parts = nil
		}

		index++
	}
}
