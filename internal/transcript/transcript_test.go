package transcript

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"video-factcheck-go/internal/types"
)

func TestFormat(t *testing.T) {
	tests := map[float64]string{
		0:      "00:00",
		2.9:    "00:02",
		59.99:  "00:59",
		90:     "01:30",
		3661:   "61:01",
		4503.7: "75:03",
	}
	for in, want := range tests {
		t.Run(fmt.Sprint(in), func(t *testing.T) {
			if got := Format(in); got != want {
				t.Fatalf("Format(%v) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestRange(t *testing.T) {
	if got := Range(0, 2); got != "00:00-00:02" {
		t.Fatalf("Range(0, 2) = %q", got)
	}
	if got := Range(118.5, 3); got != "01:58-02:01" {
		t.Fatalf("Range(118.5, 3) = %q", got)
	}
}

func segs(durations ...float64) []types.Segment {
	out := make([]types.Segment, 0, len(durations))
	var start float64
	for i, d := range durations {
		out = append(out, types.Segment{Text: fmt.Sprintf("s%d", i), Start: start, Duration: d})
		start += d
	}
	return out
}

func flatten(chunks []Chunk) []types.Segment {
	var out []types.Segment
	for _, c := range chunks {
		out = append(out, c.Segments...)
	}
	return out
}

func TestPartition_ReconstructsInput(t *testing.T) {
	cases := map[string][]types.Segment{
		"empty":        nil,
		"single":       segs(5),
		"many short":   segs(30, 30, 30, 30, 30, 30, 30),
		"exact fit":    segs(60, 60, 60, 60),
		"over budget":  segs(10, 500, 10, 10),
		"first long":   segs(300, 1, 1),
		"irregular":    segs(1.5, 119, 0.5, 0.1, 80, 45, 2, 200, 3),
		"zero lengths": segs(0, 0, 0),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			chunks := Partition(in, DefaultChunkDuration)
			got := flatten(chunks)
			if len(in) == 0 {
				if len(chunks) != 0 {
					t.Fatalf("expected no chunks, got %d", len(chunks))
				}
				return
			}
			if !reflect.DeepEqual(got, in) {
				t.Fatalf("concatenated chunks differ from input:\n got %+v\nwant %+v", got, in)
			}
			for i, c := range chunks {
				if len(c.Segments) == 0 {
					t.Fatalf("chunk %d is empty", i)
				}
			}
		})
	}
}

func TestPartition_RespectsMaxDuration(t *testing.T) {
	in := segs(1.5, 119, 0.5, 0.1, 80, 45, 2, 200, 3, 60, 61)
	for i, c := range Partition(in, DefaultChunkDuration) {
		if c.Duration() > DefaultChunkDuration && len(c.Segments) != 1 {
			t.Fatalf("chunk %d over budget (%.1fs) with %d segments", i, c.Duration(), len(c.Segments))
		}
	}
}

func TestPartition_OverLongSegmentIsOwnChunk(t *testing.T) {
	chunks := Partition(segs(10, 500, 10), DefaultChunkDuration)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[1].Segments) != 1 || chunks[1].Segments[0].Duration != 500 {
		t.Fatalf("expected long segment alone in middle chunk, got %+v", chunks[1])
	}

	first := Partition(segs(500, 10), DefaultChunkDuration)
	if len(first) != 2 || len(first[0].Segments) != 1 {
		t.Fatalf("expected leading long segment to form its own chunk, got %+v", first)
	}
}

func TestChunkSpan(t *testing.T) {
	c := Chunk{Segments: []types.Segment{
		{Text: "a", Start: 10, Duration: 2},
		{Text: "b", Start: 13, Duration: 4},
	}}
	if c.Start() != 10 || c.End() != 17 {
		t.Fatalf("unexpected span %.1f-%.1f", c.Start(), c.End())
	}
}

func TestRenderChunks(t *testing.T) {
	in := []types.Segment{
		{Text: "Hello world", Start: 0, Duration: 2},
		{Text: "Second line", Start: 2, Duration: 3},
	}
	got := RenderChunks(Partition(in, DefaultChunkDuration))
	want := "\nCHUNK 1 [00:00 - 00:05]:\n[00:00-00:02] Hello world\n[00:02-00:05] Second line\n"
	if got != want {
		t.Fatalf("RenderChunks() = %q, want %q", got, want)
	}
}

func TestRenderChunks_NumbersEachChunk(t *testing.T) {
	got := RenderChunks(Partition(segs(100, 100, 100), DefaultChunkDuration))
	for _, want := range []string{"CHUNK 1 [00:00 - 01:40]:", "CHUNK 2 [01:40 - 03:20]:", "CHUNK 3 [03:20 - 05:00]:"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestRenderPlain(t *testing.T) {
	in := []types.Segment{{Text: "Hello world"}, {Text: "Second line"}}
	if got := RenderPlain(in); got != "Hello world Second line" {
		t.Fatalf("RenderPlain() = %q", got)
	}
	if got := RenderPlain(nil); got != "" {
		t.Fatalf("RenderPlain(nil) = %q", got)
	}
}
