// Package processor coordinates one video request end to end: transcript and
// metadata retrieval, model analysis, verdict alignment and persistence.
package processor

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/aggregator"
	"video-factcheck-go/internal/analysis"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/factcheck"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/types"
	"video-factcheck-go/internal/videoid"
	"video-factcheck-go/internal/workpool"
)

type Deps struct {
	Transcripts ports.TranscriptSource
	Metadata    ports.MetadataSource
	// Store may be nil; results are then not persisted.
	Store     ports.Store
	Scheduler *analysis.Scheduler
	Pool      *workpool.Pool
	Log       *logrus.Entry
}

type Coordinator struct {
	d   Deps
	log *logrus.Entry
}

func New(d Deps) *Coordinator {
	return &Coordinator{d: d, log: d.Log}
}

// Analyze runs the full pipeline for videoURL. Metadata and persistence
// failures are logged and do not fail the request.
func (c *Coordinator) Analyze(ctx context.Context, videoURL string) (types.Result, error) {
	start := time.Now()
	videoURL = strings.TrimSpace(videoURL)
	id, err := videoid.Extract(videoURL)
	if err != nil {
		return types.Result{}, err
	}
	log := c.log.WithField("video_id", id)
	log.Info("analysis started")

	trF := workpool.Submit(ctx, c.d.Pool, func(ctx context.Context) ([]types.Segment, error) {
		return c.d.Transcripts.Fetch(ctx, id)
	})
	mdF := workpool.Submit(ctx, c.d.Pool, func(ctx context.Context) (types.VideoInfo, error) {
		return c.d.Metadata.Fetch(ctx, videoURL)
	})

	segs, trErr := trF.Wait()
	info, mdErr := mdF.Wait()

	if trErr != nil {
		log.WithError(trErr).Error("transcript retrieval failed")
		return types.Result{}, transcriptError(trErr)
	}
	log.WithField("segments", len(segs)).Info("transcript retrieved")

	var infoPtr *types.VideoInfo
	if mdErr != nil {
		log.WithError(mdErr).Warn("video info unavailable, continuing without it")
	} else {
		infoPtr = &info
	}

	bundle, err := c.d.Scheduler.Run(ctx, segs)
	if err != nil {
		log.WithError(err).Error("analysis failed")
		return types.Result{}, err
	}

	res := types.Result{
		VideoID:        id,
		VideoURL:       videoURL,
		VideoInfo:      infoPtr,
		Transcript:     factcheck.Align(segs, bundle.FactCheck),
		Summary:        bundle.Summary,
		KeyPoints:      bundle.KeyPoints,
		FactCheck:      types.FactCheckReport{Results: bundle.FactCheck},
		FactCheckStats: aggregator.Tally(bundle.FactCheck),
	}

	// the result is complete; a caller that went away must not lose it
	c.persist(context.WithoutCancel(ctx), log, res)

	res.DurationMs = time.Since(start).Milliseconds()
	log.WithFields(logrus.Fields{
		"duration_ms": res.DurationMs,
		"verdicts":    res.FactCheckStats.Total,
		"false":       res.FactCheckStats.False,
	}).Info("analysis complete")
	return res, nil
}

func (c *Coordinator) persist(ctx context.Context, log *logrus.Entry, res types.Result) {
	if c.d.Store == nil {
		return
	}
	rowID, err := c.d.Store.Save(ctx, res.Record(time.Now().UTC()))
	if err != nil {
		log.WithError(err).Error("failed to persist analysis")
		return
	}
	log.WithField("row_id", rowID).Debug("analysis persisted")
}

// Transcript returns the raw transcript with fact-check verdicts. A failed
// fact-check yields an empty verdict list.
func (c *Coordinator) Transcript(ctx context.Context, videoURL string) (types.TranscriptResult, error) {
	id, segs, err := c.fetchTranscript(ctx, videoURL)
	if err != nil {
		return types.TranscriptResult{}, err
	}
	return types.TranscriptResult{
		VideoID:    id,
		Transcript: segs,
		FactChecks: types.FactCheckReport{Results: c.d.Scheduler.FactCheck(ctx, segs)},
	}, nil
}

// Summary runs only the summary task.
func (c *Coordinator) Summary(ctx context.Context, videoURL string) (types.SummaryResult, error) {
	id, segs, err := c.fetchTranscript(ctx, videoURL)
	if err != nil {
		return types.SummaryResult{}, err
	}
	summary, err := c.d.Scheduler.Summarize(ctx, segs)
	if err != nil {
		return types.SummaryResult{}, err
	}
	return types.SummaryResult{VideoID: id, Summary: summary}, nil
}

// Ask answers a free-form question about the video.
func (c *Coordinator) Ask(ctx context.Context, videoURL, question string) (types.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return types.Answer{}, apperr.Errorf(apperr.Input, "processor.ask", "question is required")
	}
	id, segs, err := c.fetchTranscript(ctx, videoURL)
	if err != nil {
		return types.Answer{}, err
	}
	answer, err := c.d.Scheduler.Answer(ctx, segs, question)
	if err != nil {
		return types.Answer{}, err
	}
	return types.Answer{VideoURL: videoURL, VideoID: id, Question: question, Answer: answer}, nil
}

// Stored returns the latest persisted analysis for a video id.
func (c *Coordinator) Stored(ctx context.Context, videoID string) (types.Record, error) {
	if c.d.Store == nil {
		return types.Record{}, apperr.Errorf(apperr.NotFound, "processor.stored", "persistence is disabled")
	}
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return types.Record{}, apperr.Errorf(apperr.Input, "processor.stored", "video_id is required")
	}
	return c.d.Store.Latest(ctx, videoID)
}

// History lists recent analyses, newest first.
func (c *Coordinator) History(ctx context.Context, limit int) ([]types.Record, error) {
	if c.d.Store == nil {
		return nil, nil
	}
	return c.d.Store.List(ctx, limit)
}

func (c *Coordinator) fetchTranscript(ctx context.Context, videoURL string) (string, []types.Segment, error) {
	id, err := videoid.Extract(videoURL)
	if err != nil {
		return "", nil, err
	}
	segs, err := workpool.Submit(ctx, c.d.Pool, func(ctx context.Context) ([]types.Segment, error) {
		return c.d.Transcripts.Fetch(ctx, id)
	}).Wait()
	if err != nil {
		c.log.WithField("video_id", id).WithError(err).Error("transcript retrieval failed")
		return "", nil, transcriptError(err)
	}
	return id, segs, nil
}

// transcriptError keeps classified errors and marks the rest as an
// unavailable transcript.
func transcriptError(err error) error {
	if apperr.KindOf(err) != apperr.Internal {
		return err
	}
	return apperr.E(apperr.TranscriptUnavailable, "processor.transcript", err)
}
