// Package voting appends votes to the conversation ledger and fans out
// the bookkeeping a vote implies: participant counters, the
// conversation watermark, and the notification queue.
package voting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora-backend/internal/domain"
)

type conversationRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
	TouchModified(ctx context.Context, id int64, at time.Time) error
}

type participantRepo interface {
	GetByPid(ctx context.Context, conversationID, pid int64) (*domain.Participant, error)
	BumpVoteCount(ctx context.Context, conversationID, pid int64) error
	XidWhitelisted(ctx context.Context, orgID uuid.UUID, xid string) (bool, error)
}

type statementRepo interface {
	GetByID(ctx context.Context, conversationID, tid int64) (*domain.Statement, error)
}

type voteRepo interface {
	Insert(ctx context.Context, v *domain.Vote) (*domain.Vote, error)
	CurrentByPid(ctx context.Context, conversationID, pid int64) ([]domain.Vote, error)
}

type notifyRepo interface {
	Enqueue(ctx context.Context, conversationID int64, watermark time.Time) error
	TouchInteraction(ctx context.Context, conversationID, pid int64, at time.Time) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements vote ledger operations.
type Service struct {
	log           *slog.Logger
	conversations conversationRepo
	participants  participantRepo
	statements    statementRepo
	votes         voteRepo
	notify        notifyRepo
	tx            txManager

	bookkeeping sync.WaitGroup
}

// NewService creates a new voting service.
func NewService(
	logger *slog.Logger,
	conversations conversationRepo,
	participants participantRepo,
	statements statementRepo,
	votes voteRepo,
	notify notifyRepo,
	tx txManager,
) *Service {
	return &Service{
		log:           logger.With("service", "voting"),
		conversations: conversations,
		participants:  participants,
		statements:    statements,
		votes:         votes,
		notify:        notify,
		tx:            tx,
	}
}

// Wait blocks until all in-flight bookkeeping goroutines finish. Call
// on shutdown so counter and watermark updates are not cut off.
func (s *Service) Wait() {
	s.bookkeeping.Wait()
}
