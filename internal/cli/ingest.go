package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/waygraph/internal/ingest"
	"github.com/hyperjump/waygraph/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type ingestOptions struct {
	file      string
	threshold float64
	format    string
	mock      bool
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest notes, one per line, and print how each was linked",
		Long: `Reads notes from --file or stdin, one per line (blank lines are skipped),
embeds them and links each to its nearest earlier note when the distance is
below the threshold.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseOutputFormat(opts.format)
			if err != nil {
				return err
			}
			sess, err := openSession(cmd, root, opts.mock, opts.threshold)
			if err != nil {
				return err
			}
			defer sess.close()

			results, err := sess.ingestFrom(cmd.Context(), cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}
			return WriteResults(cmd.OutOrStdout(), results, format)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read notes from this file instead of stdin")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "link threshold (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", string(OutputText), "output format: text or json")
	cmd.Flags().BoolVar(&opts.mock, "mock", false, "use the deterministic mock embedder")
	return cmd
}

// session is a one-shot stack for commands that ingest and exit.
type session struct {
	logger *zap.Logger
	comp   *components
}

// openSession loads config, applies the threshold override when the flag was set,
// and wires the stack with a stderr logger.
func openSession(cmd *cobra.Command, root *rootOptions, forceMock bool, threshold float64) (*session, error) {
	cfg, _, err := loadConfig(root.configPath)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		if threshold < 0 {
			return nil, fmt.Errorf("threshold must not be negative, got %g", threshold)
		}
		cfg.Graph.Threshold = threshold
	}
	logger, err := utils.NewStderrLogger(cfg.Debug || root.debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	emb, err := newEmbedder(cfg.Embedding, forceMock, true, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	comp, err := buildComponents(cfg, emb, logger, nil)
	if err != nil {
		_ = emb.Close()
		_ = logger.Sync()
		return nil, err
	}
	return &session{logger: logger, comp: comp}, nil
}

func (s *session) close() {
	s.comp.Close()
	_ = s.logger.Sync()
}

// ingestFrom reads lines from path, or from stdin when path is empty, and ingests them as one batch.
func (s *session) ingestFrom(ctx context.Context, stdin io.Reader, path string) ([]*ingest.Result, error) {
	in := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open notes file: %w", err)
		}
		defer f.Close()
		in = f
	}
	lines, err := readLines(in)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}
	results, err := s.comp.Indexer.AddNotes(ctx, lines)
	if err != nil {
		return results, fmt.Errorf("ingest notes: %w", err)
	}
	s.logger.Debug("notes ingested", zap.Int("count", len(results)), zap.Float64("threshold", s.comp.Indexer.Threshold()))
	return results, nil
}
