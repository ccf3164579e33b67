package transcript

import "video-factcheck-go/internal/types"

// DefaultChunkDuration is the fact-check window in seconds.
const DefaultChunkDuration = 120.0

// Chunk is a non-empty contiguous run of segments.
type Chunk struct {
	Segments []types.Segment
}

func (c Chunk) Start() float64 {
	if len(c.Segments) == 0 {
		return 0
	}
	return c.Segments[0].Start
}

func (c Chunk) End() float64 {
	if len(c.Segments) == 0 {
		return 0
	}
	return c.Segments[len(c.Segments)-1].End()
}

// Duration is the summed duration of the chunk's segments.
func (c Chunk) Duration() float64 {
	var d float64
	for _, s := range c.Segments {
		d += s.Duration
	}
	return d
}

// Partition groups segments into chunks whose summed duration stays within
// maxDuration. Boundaries fall only between segments, so a single segment
// longer than maxDuration forms its own chunk.
func Partition(segs []types.Segment, maxDuration float64) []Chunk {
	var (
		chunks  []Chunk
		current []types.Segment
		acc     float64
	)
	for _, s := range segs {
		if acc+s.Duration > maxDuration && len(current) > 0 {
			chunks = append(chunks, Chunk{Segments: current})
			current = []types.Segment{s}
			acc = s.Duration
			continue
		}
		current = append(current, s)
		acc += s.Duration
	}
	if len(current) > 0 {
		chunks = append(chunks, Chunk{Segments: current})
	}
	return chunks
}
