// Package factcheck re-attaches model verdicts to the transcript lines they
// were made about.
package factcheck

import (
	"slices"

	"video-factcheck-go/internal/transcript"
	"video-factcheck-go/internal/types"
)

// Align labels every segment with its timestamp and range and attaches the
// verdict whose timestamp or timestamp_range matches those labels. When two
// verdicts claim the same key, the later one wins.
func Align(segs []types.Segment, verdicts []types.Verdict) []types.AnnotatedSegment {
	index := make(map[string]types.Verdict, 2*len(verdicts))
	for _, v := range verdicts {
		if v.Timestamp != "" {
			index[v.Timestamp] = v
		}
		if v.TimestampRange != "" {
			index[v.TimestampRange] = v
		}
	}

	out := make([]types.AnnotatedSegment, 0, len(segs))
	for _, s := range segs {
		a := types.AnnotatedSegment{
			Text:           s.Text,
			Timestamp:      transcript.Format(s.Start),
			TimestampRange: transcript.Range(s.Start, s.Duration),
			Start:          s.Start,
			Duration:       s.Duration,
		}
		v, ok := index[a.Timestamp]
		if !ok {
			v, ok = index[a.TimestampRange]
		}
		if ok {
			v.References = slices.Clone(v.References)
			a.FactCheck = &v
		}
		out = append(out, a)
	}
	return out
}
