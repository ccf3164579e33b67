package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Segment is one timed transcript line. Start and Duration are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the segment end offset in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

const (
	StatusTrue  = "TRUE"
	StatusFalse = "FALSE"
	StatusSkip  = "SKIP"
)

// Verdict is one fact-check judgment returned by the model.
type Verdict struct {
	Timestamp      string     `json:"timestamp"`
	TimestampRange string     `json:"timestamp_range"`
	Claim          string     `json:"claim"`
	Status         string     `json:"status"`
	Explanation    string     `json:"explanation"`
	References     References `json:"references"`
	Correction     string     `json:"correction,omitempty"`
}

// UnmarshalJSON normalises the status to upper case.
func (v *Verdict) UnmarshalJSON(b []byte) error {
	type plain Verdict
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	p.Status = strings.ToUpper(strings.TrimSpace(p.Status))
	*v = Verdict(p)
	return nil
}

// References accepts either a JSON array of strings or a single string.
type References []string

func (r *References) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*r = list
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	if one == "" {
		*r = nil
		return nil
	}
	*r = References{one}
	return nil
}

// AnnotatedSegment is a transcript line with its display labels and the
// verdict aligned to it, if any.
type AnnotatedSegment struct {
	Text           string   `json:"text"`
	Timestamp      string   `json:"timestamp"`
	TimestampRange string   `json:"timestamp_range"`
	Start          float64  `json:"start"`
	Duration       float64  `json:"duration"`
	FactCheck      *Verdict `json:"fact_check"`
}

type VideoInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// FactCheckReport keeps the {"results": [...]} wire shape.
type FactCheckReport struct {
	Results []Verdict `json:"results"`
}

// Bundle is the joined output of the three analysis tasks.
type Bundle struct {
	Summary   json.RawMessage `json:"summary"`
	KeyPoints json.RawMessage `json:"key_points"`
	FactCheck []Verdict       `json:"fact_check"`
}

type Stats struct {
	Total int `json:"total"`
	True  int `json:"true"`
	False int `json:"false"`
	Skip  int `json:"skip"`
	Other int `json:"other,omitempty"`
}

// Result is returned by a full analysis request.
type Result struct {
	VideoID        string             `json:"video_id"`
	VideoURL       string             `json:"video_url"`
	VideoInfo      *VideoInfo         `json:"video_info"`
	Transcript     []AnnotatedSegment `json:"transcript"`
	Summary        json.RawMessage    `json:"summary"`
	KeyPoints      json.RawMessage    `json:"key_points"`
	FactCheck      FactCheckReport    `json:"fact_check"`
	FactCheckStats Stats              `json:"fact_check_stats"`
	DurationMs     int64              `json:"duration_ms"`
}

type TranscriptResult struct {
	VideoID    string          `json:"video_id"`
	Transcript []Segment       `json:"transcript"`
	FactChecks FactCheckReport `json:"fact_checks"`
}

type Answer struct {
	VideoURL string `json:"video_url"`
	VideoID  string `json:"video_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Record is one persisted analysis row.
type Record struct {
	ID        int64           `json:"id"`
	VideoID   string          `json:"video_id"`
	VideoURL  string          `json:"video_url"`
	VideoInfo *VideoInfo      `json:"video_info"`
	Summary   json.RawMessage `json:"summary"`
	KeyPoints json.RawMessage `json:"key_points"`
	FactCheck FactCheckReport `json:"fact_check"`
	CreatedAt time.Time       `json:"timestamp"`
}

type SummaryResult struct {
	VideoID string          `json:"video_id"`
	Summary json.RawMessage `json:"summary"`
}

// Record converts a finished analysis into its stored form.
func (r Result) Record(at time.Time) Record {
	return Record{
		VideoID:   r.VideoID,
		VideoURL:  r.VideoURL,
		VideoInfo: r.VideoInfo,
		Summary:   r.Summary,
		KeyPoints: r.KeyPoints,
		FactCheck: r.FactCheck,
		CreatedAt: at,
	}
}
