package mailbox

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
)

func TestImapCriteria(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := Criteria{
		Since:   since,
		From:    "ann@example.com",
		Subject: "report",
		Text:    "quarterly",
		Unseen:  true,
		Flagged: true,
	}

	sc := c.imapCriteria()

	if !sc.Since.Equal(since) {
		t.Errorf("Since = %v", sc.Since)
	}
	if len(sc.Header) != 2 {
		t.Fatalf("got %d header fields, want 2", len(sc.Header))
	}
	if sc.Header[0].Key != "From" || sc.Header[0].Value != "ann@example.com" {
		t.Errorf("Header[0] = %+v", sc.Header[0])
	}
	if sc.Header[1].Key != "Subject" || sc.Header[1].Value != "report" {
		t.Errorf("Header[1] = %+v", sc.Header[1])
	}
	if len(sc.Text) != 1 || sc.Text[0] != "quarterly" {
		t.Errorf("Text = %v", sc.Text)
	}
	if len(sc.Flag) != 1 || sc.Flag[0] != imap.FlagFlagged {
		t.Errorf("Flag = %v", sc.Flag)
	}
	if len(sc.NotFlag) != 1 || sc.NotFlag[0] != imap.FlagSeen {
		t.Errorf("NotFlag = %v", sc.NotFlag)
	}
}

func TestImapCriteriaZeroValue(t *testing.T) {
	sc := Criteria{}.imapCriteria()
	if len(sc.Header) != 0 || len(sc.Text) != 0 || len(sc.Flag) != 0 || len(sc.NotFlag) != 0 {
		t.Errorf("zero criteria produced %+v", sc)
	}
}

func sampleEnvelopes() []Envelope {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []Envelope{
		{UID: 1, Subject: "beta", FromAddress: "Carol@example.com", Date: base.Add(2 * time.Hour)},
		{UID: 2, Subject: "Alpha", FromAddress: "bob@example.com", Date: base},
		{UID: 3, Subject: "gamma", FromAddress: "ann@example.com", Date: base.Add(time.Hour)},
	}
}

func TestSortEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		mode SortMode
		want []uint32
	}{
		{"date descending", SortDateDesc, []uint32{1, 3, 2}},
		{"date ascending", SortDateAsc, []uint32{2, 3, 1}},
		{"from case-insensitive", SortFrom, []uint32{3, 2, 1}},
		{"subject case-insensitive", SortSubject, []uint32{2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := sampleEnvelopes()
			SortEnvelopes(envs, tt.mode)
			for i, want := range tt.want {
				if envs[i].UID != want {
					t.Fatalf("position %d has UID %d, want %d", i, envs[i].UID, want)
				}
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	envs := make([]Envelope, 7)
	for i := range envs {
		envs[i].UID = uint32(i + 1)
	}

	p1 := Paginate(envs, 1, 3)
	if len(p1.Items) != 3 || p1.Items[0].UID != 1 || !p1.HasMore || p1.Total != 7 {
		t.Errorf("page 1 = %+v", p1)
	}

	p3 := Paginate(envs, 3, 3)
	if len(p3.Items) != 1 || p3.Items[0].UID != 7 || p3.HasMore {
		t.Errorf("page 3 = %+v", p3)
	}

	past := Paginate(envs, 5, 3)
	if len(past.Items) != 0 || past.HasMore || past.Total != 7 {
		t.Errorf("past-the-end page = %+v", past)
	}

	// Out-of-range arguments fall back to defaults.
	fallback := Paginate(envs, 0, 0)
	if len(fallback.Items) != 7 || fallback.HasMore {
		t.Errorf("fallback page = %+v", fallback)
	}
}
