// Package aggregator tallies fact-check verdicts for one video or many.
package aggregator

import (
	"strings"

	"video-factcheck-go/internal/types"
)

// Tally counts verdicts by status. Unknown statuses are counted as Other.
func Tally(verdicts []types.Verdict) types.Stats {
	var s types.Stats
	for _, v := range verdicts {
		s.Total++
		switch strings.ToUpper(v.Status) {
		case types.StatusTrue:
			s.True++
		case types.StatusFalse:
			s.False++
		case types.StatusSkip:
			s.Skip++
		default:
			s.Other++
		}
	}
	return s
}

// Overview summarises verdicts across a set of stored analyses.
type Overview struct {
	Videos       int                    `json:"videos"`
	Verdicts     types.Stats            `json:"verdicts"`
	FalseRate    float64                `json:"false_rate"`
	FalseByVideo map[string]int         `json:"false_by_video"`
	StatsByVideo map[string]types.Stats `json:"stats_by_video"`
}

// Aggregate builds an Overview. A video analysed more than once is counted
// from its first record in recs, which callers pass newest first.
func Aggregate(recs []types.Record) Overview {
	o := Overview{
		FalseByVideo: map[string]int{},
		StatsByVideo: map[string]types.Stats{},
	}
	for _, r := range recs {
		if _, seen := o.StatsByVideo[r.VideoID]; seen {
			continue
		}
		st := Tally(r.FactCheck.Results)
		o.StatsByVideo[r.VideoID] = st
		if st.False > 0 {
			o.FalseByVideo[r.VideoID] = st.False
		}
		o.Videos++
		o.Verdicts.Total += st.Total
		o.Verdicts.True += st.True
		o.Verdicts.False += st.False
		o.Verdicts.Skip += st.Skip
		o.Verdicts.Other += st.Other
	}
	if o.Verdicts.Total > 0 {
		o.FalseRate = float64(o.Verdicts.False) / float64(o.Verdicts.Total)
	}
	return o
}
