package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openagora/agora-backend/internal/domain"
)

// ProcessOne claims and processes a single task. It reports false when
// the queue is empty. If any candidate was deferred rather than
// notified, the task is re-enqueued under the same watermark so a
// later sweep retries them.
func (s *Sweeper) ProcessOne(ctx context.Context) (bool, error) {
	task, err := s.tasks.ClaimOne(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("claim task: %w", err)
	}

	conv, err := s.conversations.GetByID(ctx, task.ConversationID)
	if err != nil {
		// The conversation is gone; the claimed task dies with it.
		s.log.WarnContext(ctx, "dropping task for missing conversation",
			slog.Int64("conversation_id", task.ConversationID),
			slog.String("error", err.Error()),
		)
		return true, nil
	}

	candidates, err := s.tasks.PendingCandidates(ctx, task.ConversationID, task.Watermark)
	if err != nil {
		return true, fmt.Errorf("pending candidates: %w", err)
	}

	now := s.now()
	var sent, deferred, skipped int
	for _, cand := range candidates {
		switch s.decide(cand, now) {
		case decisionSkip:
			skipped++
			continue
		case decisionDefer:
			deferred++
			continue
		}

		remaining, err := s.statements.CountEligible(ctx, task.ConversationID, cand.Pid, conv.StrictModeration)
		if err != nil {
			s.log.ErrorContext(ctx, "eligible count failed, deferring participant",
				slog.Int64("conversation_id", task.ConversationID),
				slog.Int64("pid", cand.Pid),
				slog.String("error", err.Error()),
			)
			deferred++
			continue
		}
		if remaining == 0 {
			// Nothing for them to vote on: not worth an email, and not
			// worth retrying until new activity bumps the watermark.
			skipped++
			continue
		}

		if err := s.notifyParticipant(ctx, conv.ID, cand.Pid, cand.Email, remaining); err != nil {
			s.log.ErrorContext(ctx, "notify failed, deferring participant",
				slog.Int64("conversation_id", task.ConversationID),
				slog.Int64("pid", cand.Pid),
				slog.String("error", err.Error()),
			)
			deferred++
			continue
		}
		sent++
	}

	if deferred > 0 {
		if err := s.tasks.Enqueue(ctx, task.ConversationID, task.Watermark); err != nil {
			return true, fmt.Errorf("re-enqueue task: %w", err)
		}
	}

	s.log.InfoContext(ctx, "task processed",
		slog.Int64("conversation_id", task.ConversationID),
		slog.Int("sent", sent),
		slog.Int("deferred", deferred),
		slog.Int("skipped", skipped),
	)

	return true, nil
}

// notifyParticipant sends the email and records the send. MarkNotified
// runs first: losing a notification beats double-sending if the
// process dies in between.
func (s *Sweeper) notifyParticipant(ctx context.Context, conversationID, pid int64, email string, remaining int) error {
	if err := s.tasks.MarkNotified(ctx, conversationID, pid, s.now()); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	subject := s.subjectPrefix + "New statements to vote on"
	body := fmt.Sprintf(
		"There are %d statements waiting for your vote.\n\nJoin the conversation: %s/c/%d\n",
		remaining, s.baseURL, conversationID,
	)

	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
