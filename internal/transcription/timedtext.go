package transcription

import (
	"bytes"
	"encoding/xml"
	"html"
	"regexp"
	"strings"

	"video-factcheck-go/internal/types"
)

type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Body     string  `xml:",chardata"`
	} `xml:"text"`
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// parseTimedText decodes the legacy timedtext XML format:
//
//	<transcript><text start="0.0" dur="2.5">hello</text></transcript>
//
// Blank lines are skipped.
func parseTimedText(b []byte) ([]types.Segment, error) {
	var doc timedText
	if err := xml.NewDecoder(bytes.NewReader(b)).Decode(&doc); err != nil {
		return nil, err
	}
	segs := make([]types.Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := html.UnescapeString(t.Body)
		text = tagRe.ReplaceAllString(text, "")
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		segs = append(segs, types.Segment{Text: text, Start: t.Start, Duration: t.Duration})
	}
	return segs, nil
}
