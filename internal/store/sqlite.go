package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS video_analysis (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id TEXT NOT NULL,
	video_url TEXT NOT NULL,
	video_info TEXT,
	summary TEXT,
	key_points TEXT,
	fact_check TEXT,
	"timestamp" DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_video_analysis_video_id ON video_analysis(video_id);`

const sqliteColumns = `id, video_id, video_url, video_info, summary, key_points, fact_check, "timestamp"`

type SQLite struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ ports.Store = (*SQLite)(nil)

func OpenSQLite(ctx context.Context, path string, log *logrus.Entry) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time keeps SQLite out of "database is locked"
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	log.WithField("path", path).Info("sqlite store ready")
	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) Save(ctx context.Context, rec types.Record) (int64, error) {
	r, err := encode(rec)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO video_analysis (video_id, video_url, video_info, summary, key_points, fact_check, "timestamp")
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.videoID, r.videoURL, nullText(r.videoInfo), nullText(r.summary), nullText(r.keyPoints), nullText(r.factCheck),
		r.createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) Latest(ctx context.Context, videoID string) (types.Record, error) {
	rec, err := scanSQLite(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM video_analysis WHERE video_id = ? ORDER BY id DESC LIMIT 1`, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, apperr.Errorf(apperr.NotFound, "store.latest", "no analysis stored for video %s", videoID)
	}
	return rec, err
}

func (s *SQLite) List(ctx context.Context, limit int) ([]types.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM video_analysis ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(sc scanner) (types.Record, error) {
	var (
		id                                  int64
		r                                   row
		info, summary, keyPoints, factCheck sql.NullString
		ts                                  sql.NullString
	)
	if err := sc.Scan(&id, &r.videoID, &r.videoURL, &info, &summary, &keyPoints, &factCheck, &ts); err != nil {
		return types.Record{}, err
	}
	r.videoInfo = textBytes(info)
	r.summary = textBytes(summary)
	r.keyPoints = textBytes(keyPoints)
	r.factCheck = textBytes(factCheck)
	if ts.Valid {
		r.createdAt = parseTime(ts.String)
	}
	return decode(id, r)
}

func nullText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func textBytes(s sql.NullString) []byte {
	if !s.Valid || s.String == "" {
		return nil
	}
	return []byte(s.String)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
