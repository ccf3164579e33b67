// Package app wires configuration, adapters and the processor together.
package app

import (
	"context"
	"fmt"

	"video-factcheck-go/internal/analysis"
	"video-factcheck-go/internal/config"
	"video-factcheck-go/internal/llm"
	"video-factcheck-go/internal/logger"
	"video-factcheck-go/internal/ports"
	"video-factcheck-go/internal/processor"
	"video-factcheck-go/internal/retry"
	"video-factcheck-go/internal/store"
	"video-factcheck-go/internal/transcription"
	"video-factcheck-go/internal/videoinfo"
	"video-factcheck-go/internal/workpool"
)

type Application struct {
	Config      config.Config
	Log         *logger.Logger
	Pool        *workpool.Pool
	Coordinator *processor.Coordinator
	store       ports.Store
}

// New builds an Application from cfg. The caller must Close it.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Application, error) {
	model, err := llm.New(llmConfig(cfg.LLM), log.Component("llm"))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	var st ports.Store
	if cfg.PersistenceEnabled() {
		st, err = store.Open(ctx, cfg.Store.DSN, log.Component("store"))
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	pool := workpool.New(cfg.Pool.Workers)
	sched := analysis.New(model, pool, analysis.Options{
		Policy:       retry.Policy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay},
		ChunkSeconds: cfg.Analysis.ChunkSeconds,
	}, log.Component("analysis"))

	d := processor.Deps{
		Transcripts: transcription.New(transcription.Options{
			BaseURL: cfg.Transcript.BaseURL,
			Timeout: cfg.Transcript.Timeout,
			Mock:    cfg.Transcript.Mock,
		}, log.Component("transcription")),
		Metadata:  videoinfo.New(cfg.Metadata.Endpoint, cfg.Metadata.Timeout, log.Component("videoinfo")),
		Scheduler: sched,
		Pool:      pool,
		Log:       log.Component("processor"),
	}
	if st != nil {
		d.Store = st
	}

	log.WithFields(map[string]any{
		"llm_provider": cfg.LLM.Provider,
		"workers":      cfg.Pool.Workers,
		"persistence":  cfg.PersistenceEnabled(),
	}).Info("application wired")

	return &Application{
		Config:      cfg,
		Log:         log,
		Pool:        pool,
		Coordinator: processor.New(d),
		store:       st,
	}, nil
}

// Close drains the worker pool, then closes the store.
func (a *Application) Close() error {
	a.Pool.Close()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func llmConfig(c config.LLMConfig) llm.Config {
	out := llm.Config{
		Provider:   c.Provider,
		Model:      c.Model,
		GatewayURL: c.GatewayURL,
		Timeout:    c.Timeout,
		APIKeys:    c.GeminiKeys,
	}
	if c.Provider == llm.ProviderGateway {
		out.APIKeys = []string{c.GatewayKey}
	}
	return out
}
