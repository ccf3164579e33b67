// Package cli implements the vidcheck command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"video-factcheck-go/internal/app"
	"video-factcheck-go/internal/config"
	"video-factcheck-go/internal/logger"
	"video-factcheck-go/internal/types"
)

// Service is the part of the coordinator the commands drive.
type Service interface {
	Analyze(ctx context.Context, videoURL string) (types.Result, error)
	Ask(ctx context.Context, videoURL, question string) (types.Answer, error)
	History(ctx context.Context, limit int) ([]types.Record, error)
}

type session struct {
	svc     Service
	log     *logger.Logger
	workers int
	close   func() error
}

type opener func(ctx context.Context, configPath string) (*session, error)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRoot(openApp)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "vidcheck",
		Short:         "Fact-check, summarise and question YouTube videos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML config file")

	root.AddCommand(
		analyzeCmd(open),
		askCmd(open),
		batchCmd(open),
		exportCmd(open),
		watchCmd(open),
	)
	return root
}

// openApp wires the real application. Logs go to stderr so stdout stays JSON.
func openApp(ctx context.Context, configPath string) (*session, error) {
	log := logger.New()
	log.Logger.SetOutput(os.Stderr)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{
		svc:     a.Coordinator,
		log:     log,
		workers: cfg.Pool.Workers,
		close:   a.Close,
	}, nil
}

func withSession(cmd *cobra.Command, open opener, fn func(s *session) error) error {
	path, _ := cmd.Flags().GetString("config")
	s, err := open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil {
			s.log.WithError(cerr).Warn("close failed")
		}
	}()
	return fn(s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
