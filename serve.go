package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"telcochurn/churn"
	"telcochurn/config"
	qhttp "telcochurn/http"
	"telcochurn/logging"
	"telcochurn/ml"
	"telcochurn/monitoring"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// serve runs until ctx is done or the server fails. A missing bundle does
// not stop the server; it answers 503 until restarted with a valid one.
func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	// 1. Load model artifacts
	ml.SetArtifactPath(cfg.Model.Path)
	loader := ml.DefaultLoader()
	if bundle, err := loader.Get(); err != nil {
		logger.Error("model artifacts unavailable; predictions disabled",
			zap.String("path", loader.Path()), zap.Error(err))
	} else {
		logger.Info("model artifacts loaded",
			zap.String("path", loader.Path()),
			zap.Int("features", len(bundle.Features)))
	}

	// 2. Build the predictor
	metrics := monitoring.NewCollector()
	predictor, err := churn.NewPredictor(loader,
		churn.WithDefaults(cfg.Form.Defaults),
		churn.WithCacheSize(cfg.Model.CacheSize),
		churn.WithTimeout(cfg.Model.PredictTimeout),
		churn.WithLogger(logger.Named("predictor")),
		churn.WithRecorder(metrics),
	)
	if err != nil {
		return err
	}

	// 3. Start HTTP server
	handlers := qhttp.NewHandlers(predictor, loader, metrics, logger.Named("http"), cfg.Form.Language)
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, handlers, logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if cfg.Model.Watch {
		g.Go(func() error {
			err := ml.Watch(gctx, loader.Path(), logger.Named("watcher"), func(fsnotify.Op) {
				metrics.ObserveArtifactChange()
			})
			if err != nil {
				// The watcher is advisory; serving goes on without it.
				logger.Warn("artifact watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	// 4. Handle graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return server.Stop()
	})
	return g.Wait()
}
