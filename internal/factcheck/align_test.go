package factcheck

import (
	"testing"

	"video-factcheck-go/internal/types"
)

func TestAlign(t *testing.T) {
	segs := []types.Segment{
		{Text: "The sky is blue", Start: 0.0, Duration: 2.5},
		{Text: "Water boils at 50C", Start: 2.5, Duration: 3.0},
	}

	tests := []struct {
		name     string
		verdicts []types.Verdict
		want     []string // expected claim per segment, "" for none
	}{
		{
			name:     "no verdicts",
			verdicts: nil,
			want:     []string{"", ""},
		},
		{
			name: "match by timestamp",
			verdicts: []types.Verdict{
				{Timestamp: "00:02", Claim: "boils", Status: types.StatusFalse},
			},
			want: []string{"", "boils"},
		},
		{
			name: "match by range",
			verdicts: []types.Verdict{
				{Timestamp: "09:59", TimestampRange: "00:00-00:02", Claim: "sky"},
			},
			want: []string{"sky", ""},
		},
		{
			name: "unrelated timestamp",
			verdicts: []types.Verdict{
				{Timestamp: "00:01", TimestampRange: "00:01-00:03", Claim: "nothing"},
			},
			want: []string{"", ""},
		},
		{
			name: "later verdict wins",
			verdicts: []types.Verdict{
				{Timestamp: "00:00", Claim: "first"},
				{Timestamp: "00:00", Claim: "second"},
			},
			want: []string{"second", ""},
		},
		{
			name: "empty keys never match",
			verdicts: []types.Verdict{
				{Claim: "malformed"},
			},
			want: []string{"", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align(segs, tt.verdicts)
			if len(got) != len(segs) {
				t.Fatalf("expected %d segments, got %d", len(segs), len(got))
			}
			for i, w := range tt.want {
				fc := got[i].FactCheck
				switch {
				case w == "" && fc != nil:
					t.Errorf("segment %d: expected no verdict, got %q", i, fc.Claim)
				case w != "" && fc == nil:
					t.Errorf("segment %d: expected %q, got none", i, w)
				case w != "" && fc.Claim != w:
					t.Errorf("segment %d: expected %q, got %q", i, w, fc.Claim)
				}
			}
		})
	}
}

func TestAlign_Labels(t *testing.T) {
	got := Align([]types.Segment{
		{Text: "The sky is blue", Start: 0.0, Duration: 2.5},
		{Text: "Water boils at 50C", Start: 2.5, Duration: 3.0},
	}, nil)

	want := []struct{ ts, rng string }{
		{"00:00", "00:00-00:02"},
		{"00:02", "00:02-00:05"},
	}
	for i, w := range want {
		if got[i].Timestamp != w.ts || got[i].TimestampRange != w.rng {
			t.Errorf("segment %d: got %s / %s, want %s / %s",
				i, got[i].Timestamp, got[i].TimestampRange, w.ts, w.rng)
		}
		if got[i].Start != []float64{0, 2.5}[i] {
			t.Errorf("segment %d: start not carried over", i)
		}
	}
}

func TestAlign_AttachesIndependentCopies(t *testing.T) {
	segs := []types.Segment{
		{Text: "a", Start: 0, Duration: 1},
		{Text: "b", Start: 0.5, Duration: 1},
	}
	verdicts := []types.Verdict{
		{Timestamp: "00:00", Claim: "shared", References: types.References{"ref"}},
	}

	got := Align(segs, verdicts)
	if got[0].FactCheck == nil || got[1].FactCheck == nil {
		t.Fatalf("both segments should share the 00:00 verdict")
	}
	got[0].FactCheck.References[0] = "changed"
	if got[1].FactCheck.References[0] != "ref" {
		t.Fatalf("verdict copies share references")
	}
	if verdicts[0].References[0] != "ref" {
		t.Fatalf("input verdict was mutated")
	}
}
