package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"video-factcheck-go/internal/dataset"
	"video-factcheck-go/internal/watcher"
)

func analyzeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <video-url>",
		Short: "Run the full analysis for one video and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, open, func(s *session) error {
				res, err := s.svc.Analyze(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func askCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <video-url> <question>...",
		Short: "Answer a question about a video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, open, func(s *session) error {
				ans, err := s.svc.Ask(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ans)
			})
		},
	}
}

func batchCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Analyse every video listed in a workbook or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			limit, _ := cmd.Flags().GetInt("concurrency")
			return withSession(cmd, open, func(s *session) error {
				if limit <= 0 {
					limit = s.workers
				}
				rep, err := runBatch(cmd.Context(), s, args[0], out, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().String("out", "", "Write results to this .xlsx file")
	cmd.Flags().Int("concurrency", 0, "Videos analysed at once (defaults to pool.workers)")
	return cmd
}

func exportCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored analyses to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			limit, _ := cmd.Flags().GetInt("limit")
			if out == "" {
				return errors.New("--out is required")
			}
			return withSession(cmd, open, func(s *session) error {
				recs, err := s.svc.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if err := dataset.Export(out, recs); err != nil {
					return err
				}
				s.log.WithField("records", len(recs)).WithField("out", out).Info("export written")
				return nil
			})
		},
	}
	cmd.Flags().String("out", "", "Output .xlsx path")
	cmd.Flags().Int("limit", 100, "Newest analyses to export")
	return cmd
}

func watchCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Run a batch for every workbook or list dropped into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out-dir")
			if outDir == "" {
				outDir = filepath.Join(args[0], "results")
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withSession(cmd, open, func(s *session) error {
				handle := func(ctx context.Context, path string) error {
					base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
					out := filepath.Join(outDir, base+"_results.xlsx")
					rep, err := runBatch(ctx, s, path, out, s.workers)
					if err != nil {
						return err
					}
					s.log.WithField("run_id", rep.RunID).
						WithField("succeeded", rep.Succeeded).
						WithField("failed", len(rep.Failed)).
						Info("batch written to " + out)
					return nil
				}
				w, err := watcher.New(watcher.Options{
					Dir:           args[0],
					MaxConcurrent: 1,
					Settle:        500 * time.Millisecond,
					Accept:        dataset.Supported,
				}, handle, s.log.Component("watcher"))
				if err != nil {
					return fmt.Errorf("watch %s: %w", args[0], err)
				}
				defer w.Stop()

				if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().String("out-dir", "", "Where result workbooks go (defaults to <dir>/results)")
	return cmd
}
