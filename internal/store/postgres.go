package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"video-factcheck-go/internal/apperr"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS video_analysis (
	id BIGSERIAL PRIMARY KEY,
	video_id TEXT NOT NULL,
	video_url TEXT NOT NULL,
	video_info JSONB,
	summary JSONB,
	key_points JSONB,
	fact_check JSONB,
	"timestamp" TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_video_analysis_video_id ON video_analysis(video_id);`

const postgresColumns = `id, video_id, video_url, video_info, summary, key_points, fact_check, "timestamp"`

type Postgres struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

var _ ports.Store = (*Postgres)(nil)

func OpenPostgres(ctx context.Context, dsn string, log *logrus.Entry) (*Postgres, error) {
	// pool_* DSN params are consumed client-side by ParseConfig
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	log.WithField("host", cfg.ConnConfig.Host).Info("postgres store ready")
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Save(ctx context.Context, rec types.Record) (int64, error) {
	r, err := encode(rec)
	if err != nil {
		return 0, err
	}
	var id int64
	err = p.pool.QueryRow(ctx,
		`INSERT INTO video_analysis (video_id, video_url, video_info, summary, key_points, fact_check, "timestamp")
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		r.videoID, r.videoURL, r.videoInfo, r.summary, r.keyPoints, r.factCheck, r.createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return id, nil
}

func (p *Postgres) Latest(ctx context.Context, videoID string) (types.Record, error) {
	rec, err := scanPostgres(p.pool.QueryRow(ctx,
		`SELECT `+postgresColumns+` FROM video_analysis WHERE video_id = $1 ORDER BY id DESC LIMIT 1`, videoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Record{}, apperr.Errorf(apperr.NotFound, "store.latest", "no analysis stored for video %s", videoID)
	}
	return rec, err
}

func (p *Postgres) List(ctx context.Context, limit int) ([]types.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx,
		`SELECT `+postgresColumns+` FROM video_analysis ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		rec, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func scanPostgres(sc pgx.Row) (types.Record, error) {
	var (
		id int64
		r  row
	)
	if err := sc.Scan(&id, &r.videoID, &r.videoURL, &r.videoInfo, &r.summary, &r.keyPoints, &r.factCheck, &r.createdAt); err != nil {
		return types.Record{}, err
	}
	return decode(id, r)
}
