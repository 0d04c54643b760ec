package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/waygraph/internal/frames"
	"github.com/hyperjump/waygraph/internal/metrics"
	"github.com/hyperjump/waygraph/internal/server"
	"github.com/hyperjump/waygraph/internal/watcher"
	"github.com/hyperjump/waygraph/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, the layout frame loop and the inbox watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root)
		},
	}
}

func runServe(parent context.Context, root *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, resolvedConfigPath, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	debugMode := cfg.Debug || root.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Float64("threshold", cfg.Graph.Threshold),
	)

	m := metrics.NewCollector("waygraph")
	emb, err := newEmbedder(cfg.Embedding, false, false, logger)
	if err != nil {
		return err
	}
	comp, err := buildComponents(cfg, emb, logger, m)
	if err != nil {
		_ = emb.Close()
		return err
	}
	defer comp.Close()

	hub := frames.NewHub()
	loop := frames.NewLoop(comp.Engine, hub, cfg.Layout.FrameInterval(), logger)
	srv := server.NewServer(comp.Indexer, comp.Engine, &cfg.Server, logger,
		server.WithMetrics(m),
		server.WithHub(hub),
	)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)
	g.Go(func() error { return loop.Run(gctx) })
	if len(cfg.Inbox.Directories) > 0 {
		exts := cfg.Inbox.Extensions
		idx := comp.Indexer
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher(cfg.Inbox.Directories, exts, cfg.Inbox.RecursiveOrDefault(),
			func(path string) {
				n, err := idx.IndexFile(gctx, path, exts)
				if err != nil {
					logger.Warn("inbox index file failed", zap.String("path", path), zap.Error(err))
					return
				}
				if n > 0 {
					logger.Info("inbox file ingested", zap.String("path", path), zap.Int("notes", n))
				}
			},
			watchOpts...,
		)
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}
