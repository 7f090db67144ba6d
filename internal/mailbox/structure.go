package mailbox

import (
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/imapmail/internal/message"
)

// partFromStructure converts the server's body structure into the part
// descriptor tree the assembler walks. key is the positional key of the
// part being converted, used only for error reporting.
func partFromStructure(bs imap.BodyStructure, key string) (*message.Part, error) {
	switch s := bs.(type) {
	case *imap.BodyStructureSinglePart:
		return singlePart(s, key)
	case *imap.BodyStructureMultiPart:
		return multiPart(s, key)
	default:
		return nil, &message.UnexpectedStructureError{
			Key:    key,
			Reason: "unknown body structure variant",
		}
	}
}

func singlePart(s *imap.BodyStructureSinglePart, key string) (*message.Part, error) {
	p := &message.Part{
		Type:      partType(s.Type),
		Subtype:   strings.ToUpper(s.Subtype),
		Encoding:  partEncoding(s.Encoding),
		Params:    orderedParams(s.Params),
		ContentID: strings.Trim(s.ID, "<>"),
	}

	if s.Extended != nil && s.Extended.Disposition != nil {
		disp := s.Extended.Disposition
		if disp.Value == "" {
			return nil, &message.UnexpectedStructureError{
				Key:    key,
				Reason: "disposition parameters without a disposition value",
			}
		}
		p.Disposition = disp.Value
		p.DispositionParams = orderedParams(disp.Params)
	}

	// A message/rfc822 part wraps the embedded message's structure as
	// its single child.
	if s.MessageRFC822 != nil && s.MessageRFC822.BodyStructure != nil {
		child, err := partFromStructure(s.MessageRFC822.BodyStructure, key+".1")
		if err != nil {
			return nil, err
		}
		p.Parts = []*message.Part{child}
	}

	return p, nil
}

func multiPart(s *imap.BodyStructureMultiPart, key string) (*message.Part, error) {
	if len(s.Children) == 0 {
		return nil, &message.UnexpectedStructureError{
			Key:    key,
			Reason: "multipart container with no children",
		}
	}

	p := &message.Part{
		Type:    message.TypeMultipart,
		Subtype: strings.ToUpper(s.Subtype),
	}

	if s.Extended != nil {
		p.Params = orderedParams(s.Extended.Params)
		if disp := s.Extended.Disposition; disp != nil {
			if disp.Value == "" {
				return nil, &message.UnexpectedStructureError{
					Key:    key,
					Reason: "disposition parameters without a disposition value",
				}
			}
			p.Disposition = disp.Value
			p.DispositionParams = orderedParams(disp.Params)
		}
	}

	for i, child := range s.Children {
		converted, err := partFromStructure(child, childErrKey(key, i))
		if err != nil {
			return nil, err
		}
		p.Parts = append(p.Parts, converted)
	}

	return p, nil
}

func childErrKey(key string, index int) string {
	n := strconv.Itoa(index + 1)
	if key == "" {
		return n
	}
	return key + "." + n
}

// orderedParams turns the protocol library's parameter map back into an
// ordered list. The wire order is lost in the map, so continuation
// attributes ("filename*0*", "filename*1*", ...) are restored to their
// numeric order; RFC 2231 splicing depends on it.
func orderedParams(m map[string]string) []message.Param {
	if len(m) == 0 {
		return nil
	}

	attrs := make([]string, 0, len(m))
	for attr := range m {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return paramLess(attrs[i], attrs[j])
	})

	out := make([]message.Param, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, message.Param{Attribute: attr, Value: m[attr]})
	}
	return out
}

func paramLess(a, b string) bool {
	aBase, aNum := splitContinuation(a)
	bBase, bNum := splitContinuation(b)
	if aBase != bBase {
		return aBase < bBase
	}
	return aNum < bNum
}

// splitContinuation parses "filename*1*" or "filename*1" into the base
// attribute and its continuation index. A plain attribute sorts before
// every continuation of the same base.
func splitContinuation(attr string) (string, int) {
	star := strings.IndexByte(attr, '*')
	if star < 0 {
		return attr, -1
	}
	num := strings.TrimSuffix(attr[star+1:], "*")
	n, err := strconv.Atoi(num)
	if err != nil {
		return attr[:star], -1
	}
	return attr[:star], n
}

func partType(t string) message.PartType {
	switch strings.ToLower(t) {
	case "text":
		return message.TypeText
	case "multipart":
		return message.TypeMultipart
	case "message":
		return message.TypeMessage
	case "application":
		return message.TypeApplication
	case "audio":
		return message.TypeAudio
	case "image":
		return message.TypeImage
	case "video":
		return message.TypeVideo
	case "model":
		return message.TypeModel
	default:
		return message.TypeOther
	}
}

func partEncoding(e string) message.Encoding {
	switch strings.ToUpper(e) {
	case "7BIT", "":
		return message.Encoding7Bit
	case "8BIT":
		return message.Encoding8Bit
	case "BINARY":
		return message.EncodingBinary
	case "BASE64":
		return message.EncodingBase64
	case "QUOTED-PRINTABLE":
		return message.EncodingQuotedPrintable
	default:
		return message.EncodingOther
	}
}
