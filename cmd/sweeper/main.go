// Command sweeper runs the notification sweep on its own, for
// deployments that keep email delivery out of the API process. Safe to
// run alongside the server's in-process workers: the queue hands each
// task to exactly one claimant.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/adapter/postgres/conversation"
	"github.com/openagora/agora-backend/internal/adapter/postgres/notification"
	"github.com/openagora/agora-backend/internal/adapter/postgres/statement"
	"github.com/openagora/agora-backend/internal/adapter/provider/mailer"
	"github.com/openagora/agora-backend/internal/app"
	"github.com/openagora/agora-backend/internal/config"
	"github.com/openagora/agora-backend/internal/service/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	var sender interface {
		Send(ctx context.Context, to, subject, body string) error
	}
	if cfg.Mailer.APIKey != "" && cfg.Mailer.BaseURL != "" {
		sender = mailer.NewClient(cfg.Mailer, logger)
	} else {
		sender = mailer.NewStub(logger)
	}

	sweeper := notify.NewSweeper(
		logger,
		cfg.Notify,
		notification.New(pool),
		conversation.New(pool),
		statement.New(pool),
		sender,
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Notify.Workers; i++ {
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sweeper stopped")
}
