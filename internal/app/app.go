package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/adapter/postgres/conversation"
	"github.com/openagora/agora-backend/internal/adapter/postgres/notification"
	"github.com/openagora/agora-backend/internal/adapter/postgres/participant"
	"github.com/openagora/agora-backend/internal/adapter/postgres/snapshot"
	"github.com/openagora/agora-backend/internal/adapter/postgres/statement"
	"github.com/openagora/agora-backend/internal/adapter/postgres/translation"
	"github.com/openagora/agora-backend/internal/adapter/postgres/vote"
	"github.com/openagora/agora-backend/internal/adapter/provider/mailer"
	"github.com/openagora/agora-backend/internal/adapter/provider/moderation"
	"github.com/openagora/agora-backend/internal/adapter/provider/translate"
	"github.com/openagora/agora-backend/internal/config"
	"github.com/openagora/agora-backend/internal/service/comment"
	"github.com/openagora/agora-backend/internal/service/identity"
	"github.com/openagora/agora-backend/internal/service/notify"
	"github.com/openagora/agora-backend/internal/service/scheduler"
	"github.com/openagora/agora-backend/internal/service/votecache"
	"github.com/openagora/agora-backend/internal/service/voting"
	"github.com/openagora/agora-backend/internal/transport/httpapi"
)

// Run wires the engine together and serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting participation engine",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	conversationRepo := conversation.New(pool)
	participantRepo := participant.New(pool)
	statementRepo := statement.New(pool)
	voteRepo := vote.New(pool)
	snapshotRepo := snapshot.New(pool)
	translationRepo := translation.New(pool)
	notificationRepo := notification.New(pool)
	txManager := postgres.NewTxManager(pool)

	translator := newTranslator(cfg.Translate, logger)
	mailSender := newMailer(cfg.Mailer, logger)
	spamChecker := newSpamChecker(cfg.Moderation, logger)
	profanityChecker := moderation.NewProfanityChecker(nil)

	identitySvc := identity.NewService(logger, conversationRepo, participantRepo)
	votingSvc := voting.NewService(logger, conversationRepo, participantRepo, statementRepo, voteRepo, notificationRepo, txManager)
	schedulerSvc := scheduler.NewService(logger, cfg.Scheduler, conversationRepo, participantRepo, statementRepo, snapshotRepo, translationRepo, translator,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	commentSvc := comment.NewService(logger, conversationRepo, participantRepo, statementRepo, notificationRepo, spamChecker, profanityChecker)
	sweeper := notify.NewSweeper(logger, cfg.Notify, notificationRepo, conversationRepo, statementRepo, mailSender)

	vectors, err := votecache.NewCache(logger, voteRepo, statementRepo, cfg.Cache.Size)
	if err != nil {
		return fmt.Errorf("create vote cache: %w", err)
	}

	server := httpapi.NewServer(logger, cfg.Server, identitySvc, votingSvc, schedulerSvc, commentSvc, vectors, sweeper)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	for i := 0; i < cfg.Notify.Workers; i++ {
		g.Go(func() error {
			return sweeper.Run(gctx)
		})
	}

	err = g.Wait()
	votingSvc.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

type translatorProvider interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type mailProvider interface {
	Send(ctx context.Context, to, subject, body string) error
}

type spamProvider interface {
	IsSpam(ctx context.Context, text string) (bool, error)
}

// newTranslator picks the real provider when an API key is configured,
// the stub otherwise. Same pattern for mail and spam checking.
func newTranslator(cfg config.TranslateConfig, logger *slog.Logger) translatorProvider {
	if cfg.APIKey != "" && cfg.BaseURL != "" {
		return translate.NewProvider(cfg, logger)
	}
	return translate.NewStub()
}

func newMailer(cfg config.MailerConfig, logger *slog.Logger) mailProvider {
	if cfg.APIKey != "" && cfg.BaseURL != "" {
		return mailer.NewClient(cfg, logger)
	}
	return mailer.NewStub(logger)
}

func newSpamChecker(cfg config.ModerationConfig, logger *slog.Logger) spamProvider {
	if cfg.AkismetKey != "" {
		return moderation.NewSpamChecker(cfg, logger)
	}
	return moderation.NewSpamStub()
}
