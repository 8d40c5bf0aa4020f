// Command login-etl moves one batch of login events from SQS into PostgreSQL, masking ip and device_id.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/login-etl/internal/config"
	"github.com/and161185/login-etl/internal/errs"
	"github.com/and161185/login-etl/internal/queue"
	"github.com/and161185/login-etl/internal/repository/postgres"
	"github.com/and161185/login-etl/internal/service"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfgFile := flag.String("config", "", "optional config file (yaml, json, toml)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	if err := run(logger, *cfgFile); err != nil {
		var se *errs.StageError
		if errors.As(err, &se) {
			logger.Error("run failed", zap.String("stage", se.Stage), zap.Error(se.Err))
		} else {
			logger.Error("run failed", zap.Error(err))
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := queue.NewClient(ctx, cfg.Client())
	if err != nil {
		return &errs.StageError{Stage: service.StageContainers, Err: err}
	}
	opts := cfg.ReaderOptions()
	opts.Logger = logger.Named("queue")
	reader := queue.NewReader(client, cfg.Queue.URL, opts)

	// The pipeline owns the connection from here and closes it.
	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		return &errs.StageError{Stage: service.StageContainers, Err: err}
	}
	repo := postgres.NewLoginRepo(db)

	p := service.NewPipeline(reader, repo, logger.Named("pipeline"))
	return p.Run(ctx)
}
