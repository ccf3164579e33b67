// Package store persists completed analyses in the video_analysis table,
// on SQLite by default or PostgreSQL when given a postgres:// DSN.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/types"
)

const DefaultPath = "video_analysis.db"

// Open picks the backend from dsn. An empty dsn opens DefaultPath.
func Open(ctx context.Context, dsn string, log *logrus.Entry) (ports.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn, log)
	case dsn == "":
		return OpenSQLite(ctx, DefaultPath, log)
	default:
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"), log)
	}
}

// row is a Record in column form. JSON columns are nil when empty.
type row struct {
	videoID   string
	videoURL  string
	videoInfo []byte
	summary   []byte
	keyPoints []byte
	factCheck []byte
	createdAt time.Time
}

func encode(rec types.Record) (row, error) {
	r := row{
		videoID:   rec.VideoID,
		videoURL:  rec.VideoURL,
		summary:   nonEmpty(rec.Summary),
		keyPoints: nonEmpty(rec.KeyPoints),
		createdAt: rec.CreatedAt,
	}
	if r.createdAt.IsZero() {
		r.createdAt = time.Now().UTC()
	}
	if rec.VideoInfo != nil {
		b, err := json.Marshal(rec.VideoInfo)
		if err != nil {
			return row{}, fmt.Errorf("encode video_info: %w", err)
		}
		r.videoInfo = b
	}
	results := rec.FactCheck.Results
	if results == nil {
		results = []types.Verdict{}
	}
	b, err := json.Marshal(types.FactCheckReport{Results: results})
	if err != nil {
		return row{}, fmt.Errorf("encode fact_check: %w", err)
	}
	r.factCheck = b
	return r, nil
}

func decode(id int64, r row) (types.Record, error) {
	rec := types.Record{
		ID:        id,
		VideoID:   r.videoID,
		VideoURL:  r.videoURL,
		Summary:   nonEmpty(r.summary),
		KeyPoints: nonEmpty(r.keyPoints),
		CreatedAt: r.createdAt,
	}
	if len(r.videoInfo) > 0 {
		var info types.VideoInfo
		if err := json.Unmarshal(r.videoInfo, &info); err != nil {
			return types.Record{}, fmt.Errorf("decode video_info: %w", err)
		}
		rec.VideoInfo = &info
	}
	rec.FactCheck.Results = []types.Verdict{}
	if len(r.factCheck) > 0 {
		if err := json.Unmarshal(r.factCheck, &rec.FactCheck); err != nil {
			return types.Record{}, fmt.Errorf("decode fact_check: %w", err)
		}
	}
	return rec, nil
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}
