package transcript

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"video-factcheck-go/internal/types"
)

// RenderChunks renders chunks as labelled blocks for the fact-check prompt:
//
//	CHUNK 1 [00:00 - 01:58]:
//	[00:00-00:02] text
func RenderChunks(chunks []Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "\nCHUNK %d [%s - %s]:\n", i+1, Format(c.Start()), Format(c.End()))
		for _, s := range c.Segments {
			fmt.Fprintf(&b, "[%s] %s\n", Range(s.Start, s.Duration), s.Text)
		}
	}
	return b.String()
}

// RenderPlain joins segment texts with single spaces, dropping timing.
func RenderPlain(segs []types.Segment) string {
	return strings.Join(lo.Map(segs, func(s types.Segment, _ int) string {
		return s.Text
	}), " ")
}
