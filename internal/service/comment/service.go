// Package comment handles statement submission: validation, spam and
// profanity screening, and insertion into the conversation.
package comment

import (
	"context"
	"log/slog"
	"time"

	"github.com/openagora/agora-backend/internal/domain"
)

type conversationRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
	TouchModified(ctx context.Context, id int64, at time.Time) error
}

type participantRepo interface {
	GetByPid(ctx context.Context, conversationID, pid int64) (*domain.Participant, error)
}

type statementRepo interface {
	Create(ctx context.Context, st *domain.Statement) (*domain.Statement, error)
}

type notifyRepo interface {
	Enqueue(ctx context.Context, conversationID int64, watermark time.Time) error
	TouchInteraction(ctx context.Context, conversationID, pid int64, at time.Time) error
}

type spamChecker interface {
	IsSpam(ctx context.Context, text string) (bool, error)
}

type profanityChecker interface {
	HasProfanity(ctx context.Context, text string) (bool, error)
}

// Service implements statement submission.
type Service struct {
	log           *slog.Logger
	conversations conversationRepo
	participants  participantRepo
	statements    statementRepo
	notify        notifyRepo
	spam          spamChecker
	profanity     profanityChecker
}

// NewService creates a new comment service.
func NewService(
	logger *slog.Logger,
	conversations conversationRepo,
	participants participantRepo,
	statements statementRepo,
	notify notifyRepo,
	spam spamChecker,
	profanity profanityChecker,
) *Service {
	return &Service{
		log:           logger.With("service", "comment"),
		conversations: conversations,
		participants:  participants,
		statements:    statements,
		notify:        notify,
		spam:          spam,
		profanity:     profanity,
	}
}
