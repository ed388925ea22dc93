package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/openagora/agora-backend/internal/domain"
)

// Subscribe opts a participant into activity email. Re-subscribing
// updates the address and resets the backoff counter.
func (s *Sweeper) Subscribe(ctx context.Context, conversationID, pid int64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.NewValidationError("email", "must be a valid address")
	}

	if err := s.tasks.Subscribe(ctx, conversationID, pid, email); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}
