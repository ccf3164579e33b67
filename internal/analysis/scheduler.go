// Package analysis drives the model tasks run over a transcript: fact-check,
// summary, key points and free-form questions.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/retry"
	"video-factcheck-go/internal/transcript"
	"video-factcheck-go/internal/types"
	"video-factcheck-go/internal/workpool"
)

type Options struct {
	Policy       retry.Policy
	ChunkSeconds float64
}

// Scheduler runs model tasks through a shared worker pool. Each remote call
// is retried on rate limits according to Options.Policy.
type Scheduler struct {
	model ports.ModelService
	pool  *workpool.Pool
	opts  Options
	log   *logrus.Entry
}

func New(model ports.ModelService, pool *workpool.Pool, opts Options, log *logrus.Entry) *Scheduler {
	if opts.ChunkSeconds <= 0 {
		opts.ChunkSeconds = transcript.DefaultChunkDuration
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = retry.DefaultPolicy
	}
	return &Scheduler{
		model: model,
		pool:  pool,
		opts:  opts,
		log:   log,
	}
}

// Run submits the fact-check, summary and key-point tasks concurrently and
// waits for all three. A failed fact-check degrades to no verdicts; a failed
// summary or key-point task fails the run.
func (s *Scheduler) Run(ctx context.Context, segs []types.Segment) (types.Bundle, error) {
	chunked := transcript.RenderChunks(transcript.Partition(segs, s.opts.ChunkSeconds))
	plain := transcript.RenderPlain(segs)

	factF := workpool.Submit(ctx, s.pool, func(ctx context.Context) ([]types.Verdict, error) {
		return s.factCheck(ctx, chunked), nil
	})
	sumF := workpool.Submit(ctx, s.pool, func(ctx context.Context) (json.RawMessage, error) {
		return s.document(ctx, taskSummarize, summarizePrompt, plain)
	})
	kpF := workpool.Submit(ctx, s.pool, func(ctx context.Context) (json.RawMessage, error) {
		return s.document(ctx, taskKeyPoints, keyPointsPrompt, plain)
	})

	summary, sumErr := sumF.Wait()
	keyPoints, kpErr := kpF.Wait()
	verdicts, factErr := factF.Wait()

	if sumErr != nil {
		return types.Bundle{}, sumErr
	}
	if kpErr != nil {
		return types.Bundle{}, kpErr
	}
	if factErr != nil {
		s.log.WithError(factErr).Warn("fact-check task not run")
		verdicts = []types.Verdict{}
	}

	return types.Bundle{Summary: summary, KeyPoints: keyPoints, FactCheck: verdicts}, nil
}

// FactCheck runs only the fact-check task. It never fails: any problem
// yields an empty verdict list.
func (s *Scheduler) FactCheck(ctx context.Context, segs []types.Segment) []types.Verdict {
	chunked := transcript.RenderChunks(transcript.Partition(segs, s.opts.ChunkSeconds))
	verdicts, err := workpool.Submit(ctx, s.pool, func(ctx context.Context) ([]types.Verdict, error) {
		return s.factCheck(ctx, chunked), nil
	}).Wait()
	if err != nil {
		s.log.WithError(err).Warn("fact-check task not run")
		return []types.Verdict{}
	}
	return verdicts
}

// Summarize runs only the summary task.
func (s *Scheduler) Summarize(ctx context.Context, segs []types.Segment) (json.RawMessage, error) {
	plain := transcript.RenderPlain(segs)
	return workpool.Submit(ctx, s.pool, func(ctx context.Context) (json.RawMessage, error) {
		return s.document(ctx, taskSummarize, summarizePrompt, plain)
	}).Wait()
}

// Answer asks a free-form question about the transcript and returns the
// model's reply with any code fence removed.
func (s *Scheduler) Answer(ctx context.Context, segs []types.Segment, question string) (string, error) {
	prompt := questionPrompt + " " + question + "\n\n" + transcript.RenderPlain(segs)
	return workpool.Submit(ctx, s.pool, func(ctx context.Context) (string, error) {
		raw, err := s.invoke(ctx, taskQuestion, prompt)
		if err != nil {
			return "", remoteError(taskQuestion, err)
		}
		return stripFences(raw), nil
	}).Wait()
}

func (s *Scheduler) invoke(ctx context.Context, task, prompt string) (string, error) {
	log := s.log.WithField("task", task)
	log.WithField("prompt_len", len(prompt)).Debug("invoking model")
	return retry.DoNotify(ctx, s.opts.Policy, func(ctx context.Context) (string, error) {
		return s.model.Invoke(ctx, prompt)
	}, retry.LogNotify(log, task))
}

func (s *Scheduler) factCheck(ctx context.Context, chunked string) []types.Verdict {
	log := s.log.WithField("task", taskFactCheck)

	raw, err := s.invoke(ctx, taskFactCheck, factCheckPrompt+"\n\n"+chunked)
	if err != nil {
		log.WithError(err).Warn("fact-check failed, continuing without verdicts")
		return []types.Verdict{}
	}

	verdicts, dropped, ok := parseVerdicts(raw)
	if !ok {
		log.WithField("reply", truncate(raw, 200)).Warn("fact-check reply has no results, continuing without verdicts")
		return []types.Verdict{}
	}
	if dropped > 0 {
		log.WithField("dropped", dropped).Warn("dropped malformed verdicts")
	}
	log.WithField("verdicts", len(verdicts)).Info("fact-check complete")
	return verdicts
}

func (s *Scheduler) document(ctx context.Context, task, instructions, plain string) (json.RawMessage, error) {
	raw, err := s.invoke(ctx, task, instructions+"\n\n"+plain)
	if err != nil {
		return nil, remoteError(task, err)
	}
	doc, ok := parseDocument(raw)
	if !ok {
		s.log.WithField("task", task).WithField("reply", truncate(raw, 200)).Error("unparseable model reply")
		return nil, apperr.Errorf(apperr.MalformedResponse, "analysis."+task, "model returned no usable JSON")
	}
	return doc, nil
}

func remoteError(task string, err error) error {
	kind := apperr.Remote
	if retry.IsRateLimit(err) {
		kind = apperr.RateLimit
	}
	return apperr.E(kind, "analysis."+task, fmt.Errorf("model call failed: %w", err))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
