package message

import (
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

func leaf(t PartType, subtype string) *Part {
	return &Part{Type: t, Subtype: subtype}
}

func keysOf(flat []FlattenedPart) []string {
	out := make([]string, len(flat))
	for i, fp := range flat {
		out[i] = fp.Key
	}
	return out
}

func assertKeys(t *testing.T, got []FlattenedPart, want []string) {
	t.Helper()
	keys := keysOf(got)
	if len(keys) != len(want) {
		t.Fatalf("got keys %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got keys %v, want %v", keys, want)
		}
	}
}

func TestFlattenFlatSiblings(t *testing.T) {
	parts := []*Part{
		leaf(TypeText, "PLAIN"),
		leaf(TypeText, "HTML"),
		leaf(TypeApplication, "PDF"),
	}
	assertKeys(t, Flatten(parts), []string{"1", "2", "3"})
}

func TestFlattenNestedMultipart(t *testing.T) {
	parts := []*Part{
		{
			Type:    TypeMultipart,
			Subtype: "ALTERNATIVE",
			Parts: []*Part{
				leaf(TypeText, "PLAIN"),
				leaf(TypeText, "HTML"),
			},
		},
		leaf(TypeImage, "PNG"),
	}
	assertKeys(t, Flatten(parts), []string{"1", "1.1", "1.2", "2"})
}

func TestFlattenMessageContainerRestartsAtZero(t *testing.T) {
	parts := []*Part{
		leaf(TypeText, "PLAIN"),
		{
			Type:    TypeMessage,
			Subtype: "RFC822",
			Parts: []*Part{
				leaf(TypeText, "PLAIN"),
				leaf(TypeApplication, "OCTET-STREAM"),
			},
		},
	}
	assertKeys(t, Flatten(parts), []string{"1", "2", "2.0", "2.1"})
}

// One level below a message container the prefix stops growing: the
// children of a container found there are numbered onto the same key
// with no separating dot.
func TestFlattenPrefixStopsGrowingBelowMessage(t *testing.T) {
	parts := []*Part{
		{
			Type:    TypeMessage,
			Subtype: "RFC822",
			Parts: []*Part{
				{
					Type:    TypeMultipart,
					Subtype: "MIXED",
					Parts: []*Part{
						leaf(TypeText, "PLAIN"),
						leaf(TypeImage, "JPEG"),
					},
				},
			},
		},
	}
	assertKeys(t, Flatten(parts), []string{"1", "1.0", "1.01", "1.02"})
}

func TestFlattenClearsSubParts(t *testing.T) {
	container := &Part{
		Type:    TypeMultipart,
		Subtype: "MIXED",
		Parts:   []*Part{leaf(TypeText, "PLAIN")},
	}
	flat := Flatten([]*Part{container})

	if len(flat) != 2 {
		t.Fatalf("got %d entries, want 2", len(flat))
	}
	if flat[0].Part.Parts != nil {
		t.Errorf("container sub-parts not cleared after expansion")
	}
}

func TestFlattenFlatTreeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		parts := make([]*Part, n)
		for i := range parts {
			parts[i] = leaf(TypeText, "PLAIN")
		}

		flat := Flatten(parts)
		if len(flat) != n {
			t.Fatalf("got %d entries, want %d", len(flat), n)
		}
		for i, fp := range flat {
			want := strconv.Itoa(i + 1)
			if fp.Key != want {
				t.Fatalf("entry %d has key %q, want %q", i, fp.Key, want)
			}
		}
	})
}
