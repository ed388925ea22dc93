// Package identity resolves callers to conversation participants. A
// caller is identified by a global uid, or by an external (org, xid)
// pair that is bound to a uid on first contact.
package identity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openagora/agora-backend/internal/domain"
)

type conversationRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
}

type participantRepo interface {
	GetByUID(ctx context.Context, conversationID int64, uid uuid.UUID) (*domain.Participant, error)
	Create(ctx context.Context, conversationID int64, uid uuid.UUID) (*domain.Participant, error)
	GetBinding(ctx context.Context, orgID uuid.UUID, xid string) (*domain.XidBinding, error)
	InsertBinding(ctx context.Context, orgID uuid.UUID, xid string, uid uuid.UUID) error
	XidWhitelisted(ctx context.Context, orgID uuid.UUID, xid string) (bool, error)
}

// Service implements participant identity resolution.
type Service struct {
	log           *slog.Logger
	conversations conversationRepo
	participants  participantRepo
}

// NewService creates a new identity service.
func NewService(logger *slog.Logger, conversations conversationRepo, participants participantRepo) *Service {
	return &Service{
		log:           logger.With("service", "identity"),
		conversations: conversations,
		participants:  participants,
	}
}
