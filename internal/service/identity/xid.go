package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openagora/agora-backend/internal/domain"
)

// ResolveXid maps an external (org, xid) pair to a participant in the
// conversation. The first call binds the xid to a freshly minted uid;
// later calls reuse the binding. Bindings are org-scoped, so the same
// xid resolves to the same uid across all of the org's conversations.
// When the conversation requires a whitelist, unlisted xids are
// rejected before any binding is made.
func (s *Service) ResolveXid(ctx context.Context, conversationID int64, orgID uuid.UUID, xid string) (*domain.Identity, error) {
	if xid == "" {
		return nil, domain.NewValidationError("xid", "required")
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownConversation
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if conv.UseXidWhitelist {
		allowed, err := s.participants.XidWhitelisted(ctx, orgID, xid)
		if err != nil {
			return nil, fmt.Errorf("check whitelist: %w", err)
		}
		if !allowed {
			return nil, domain.ErrNotWhitelisted
		}
	}

	uid, err := s.bindingUID(ctx, orgID, xid)
	if err != nil {
		return nil, err
	}

	return s.Resolve(ctx, conversationID, uid)
}

// XidAllowed reports whether the xid may join the conversation. It is
// true whenever the conversation does not enforce a whitelist.
func (s *Service) XidAllowed(ctx context.Context, conversationID int64, orgID uuid.UUID, xid string) (bool, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrUnknownConversation
		}
		return false, fmt.Errorf("get conversation: %w", err)
	}

	if !conv.UseXidWhitelist {
		return true, nil
	}

	return s.participants.XidWhitelisted(ctx, orgID, xid)
}

// bindingUID returns the uid bound to (orgID, xid), creating the
// binding if absent. InsertBinding is ON CONFLICT DO NOTHING, so a
// lost race is resolved by re-reading the winner's row.
func (s *Service) bindingUID(ctx context.Context, orgID uuid.UUID, xid string) (uuid.UUID, error) {
	binding, err := s.participants.GetBinding(ctx, orgID, xid)
	if err == nil {
		return binding.UID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("get xid binding: %w", err)
	}

	uid := uuid.New()
	if err := s.participants.InsertBinding(ctx, orgID, xid, uid); err != nil {
		return uuid.Nil, fmt.Errorf("insert xid binding: %w", err)
	}

	// Re-read: we may have lost the race and the insert been a no-op.
	binding, err = s.participants.GetBinding(ctx, orgID, xid)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get xid binding after insert: %w", err)
	}

	if binding.UID != uid {
		s.log.DebugContext(ctx, "xid binding race lost, using existing uid",
			slog.String("xid", xid),
		)
	}

	return binding.UID, nil
}
