package cli

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"video-factcheck-go/internal/aggregator"
	"video-factcheck-go/internal/dataset"
	"video-factcheck-go/internal/types"
)

type batchFailure struct {
	Row      int    `json:"row"`
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

type batchReport struct {
	RunID     string              `json:"run_id"`
	Source    string              `json:"source"`
	Entries   int                 `json:"entries"`
	Succeeded int                 `json:"succeeded"`
	Failed    []batchFailure      `json:"failed"`
	Overview  aggregator.Overview `json:"overview"`
	Output    string              `json:"output,omitempty"`
}

// runBatch analyses every entry in path with at most limit in flight. A
// failed video is reported, not fatal. Results are exported to out when set.
func runBatch(ctx context.Context, s *session, path, out string, limit int) (batchReport, error) {
	entries, err := dataset.Load(path)
	if err != nil {
		return batchReport{}, err
	}
	rep := batchReport{
		RunID:   uuid.New().String(),
		Source:  path,
		Entries: len(entries),
		Failed:  []batchFailure{},
	}
	log := s.log.WithFields(logrus.Fields{"run_id": rep.RunID, "source": path})
	log.WithField("entries", len(entries)).Info("batch started")

	if limit <= 0 {
		limit = 1
	}
	recs := make([]types.Record, len(entries))
	errs := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, e := range entries {
		g.Go(func() error {
			res, err := s.svc.Analyze(gctx, e.VideoURL)
			if err != nil {
				log.WithField("video_url", e.VideoURL).WithError(err).Warn("video failed")
				errs[i] = err
				return nil
			}
			recs[i] = res.Record(time.Now().UTC())
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	done := lo.Filter(recs, func(_ types.Record, i int) bool { return errs[i] == nil })
	for i, err := range errs {
		if err != nil {
			rep.Failed = append(rep.Failed, batchFailure{
				Row:      entries[i].Row,
				VideoURL: entries[i].VideoURL,
				Error:    err.Error(),
			})
		}
	}
	rep.Succeeded = len(done)
	rep.Overview = aggregator.Aggregate(done)

	if out != "" {
		if err := dataset.Export(out, done); err != nil {
			return rep, err
		}
		rep.Output = out
	}
	log.WithFields(logrus.Fields{
		"succeeded": rep.Succeeded,
		"failed":    len(rep.Failed),
	}).Info("batch finished")
	return rep, nil
}
