// Package notify runs the notification sweep: it drains the per-
// conversation task queue and emails subscribed participants about new
// activity, backing off on participants who stop responding.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/openagora/agora-backend/internal/config"
	"github.com/openagora/agora-backend/internal/domain"
)

type taskRepo interface {
	ClaimOne(ctx context.Context) (*domain.NotificationTask, error)
	Enqueue(ctx context.Context, conversationID int64, watermark time.Time) error
	PendingCandidates(ctx context.Context, conversationID int64, watermark time.Time) ([]domain.NotifyState, error)
	MarkNotified(ctx context.Context, conversationID, pid int64, at time.Time) error
	Subscribe(ctx context.Context, conversationID, pid int64, email string) error
}

type conversationRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
}

type statementRepo interface {
	CountEligible(ctx context.Context, conversationID, pid int64, strict bool) (int, error)
}

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Sweeper processes notification tasks.
type Sweeper struct {
	log           *slog.Logger
	tasks         taskRepo
	conversations conversationRepo
	statements    statementRepo
	mailer        mailSender

	idleInterval  time.Duration
	recentWindow  time.Duration
	backoff       []time.Duration
	subjectPrefix string
	baseURL       string

	// now is swapped in tests.
	now func() time.Time
}

// NewSweeper creates a notification sweeper from config.
func NewSweeper(
	logger *slog.Logger,
	cfg config.NotifyConfig,
	tasks taskRepo,
	conversations conversationRepo,
	statements statementRepo,
	mailer mailSender,
) *Sweeper {
	return &Sweeper{
		log:           logger.With("service", "notify"),
		tasks:         tasks,
		conversations: conversations,
		statements:    statements,
		mailer:        mailer,
		idleInterval:  cfg.IdleInterval,
		recentWindow:  cfg.RecentWindow,
		backoff:       cfg.Backoff,
		subjectPrefix: cfg.SubjectPrefix,
		baseURL:       cfg.BaseURL,
		now:           time.Now,
	}
}

// Run drains the task queue until ctx is cancelled. When the queue is
// empty it sleeps for the idle interval. Task-level failures are
// logged and the loop moves on.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "notification sweep started",
		slog.Duration("idle_interval", s.idleInterval),
	)

	for {
		processed, err := s.ProcessOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.ErrorContext(ctx, "sweep iteration failed",
				slog.String("error", err.Error()),
			)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.idleInterval):
		}
	}
}
