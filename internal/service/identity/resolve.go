package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openagora/agora-backend/internal/domain"
)

// createAttempts bounds pid-collision retries on participant creation.
const createAttempts = 3

// Resolve maps a global uid to its pid within the conversation,
// creating the participant on first contact. A zero uid mints a fresh
// one, so anonymous callers get a stable identity to carry forward.
// If two requests race to create the same participant, the loser
// re-reads the winner's row. A conflict against a different uid means
// the pid was taken by a concurrent first contact; the create retries
// with the next pid.
func (s *Service) Resolve(ctx context.Context, conversationID int64, uid uuid.UUID) (*domain.Identity, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownConversation
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	minted := false
	if uid == uuid.Nil {
		uid = uuid.New()
		minted = true
	}

	if !minted {
		existing, err := s.participants.GetByUID(ctx, conversationID, uid)
		if err == nil {
			return &domain.Identity{UID: existing.UID, Pid: existing.Pid}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get participant: %w", err)
		}
	}

	var created *domain.Participant
	for attempt := 1; ; attempt++ {
		created, err = s.participants.Create(ctx, conversationID, uid)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("create participant: %w", err)
		}
		winner, rerr := s.participants.GetByUID(ctx, conversationID, uid)
		if rerr == nil {
			return &domain.Identity{UID: winner.UID, Pid: winner.Pid}, nil
		}
		if !errors.Is(rerr, domain.ErrNotFound) {
			return nil, fmt.Errorf("get participant after conflict: %w", rerr)
		}
		// The conflicting row belongs to another uid, so the race was
		// over the pid itself.
		if attempt == createAttempts {
			return nil, fmt.Errorf("create participant after %d attempts: %w", attempt, err)
		}
	}

	s.log.InfoContext(ctx, "participant created",
		slog.Int64("conversation_id", conv.ID),
		slog.Int64("pid", created.Pid),
	)

	return &domain.Identity{UID: created.UID, Pid: created.Pid}, nil
}
