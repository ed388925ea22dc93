package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openagora/agora-backend/internal/domain"
)

// Cast appends a vote to the ledger. The append is the authoritative
// act; bookkeeping (vote counter, conversation watermark, notification
// queue) runs afterwards in a goroutine, off the request path, and a
// failure there is logged but does not undo the vote.
//
// Re-voting on the same statement is a normal append and the latest
// row wins on read. Only a duplicate within the same ledger instant is
// rejected, as ErrDuplicateVote.
func (s *Service) Cast(ctx context.Context, in CastInput) (*domain.Vote, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownConversation
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if !conv.AcceptsActivity() {
		return nil, domain.ErrConversationClosed
	}

	if conv.UseXidWhitelist {
		if in.Xid == "" {
			return nil, domain.ErrNotWhitelisted
		}
		allowed, err := s.participants.XidWhitelisted(ctx, in.OrgID, in.Xid)
		if err != nil {
			return nil, fmt.Errorf("check whitelist: %w", err)
		}
		if !allowed {
			return nil, domain.ErrNotWhitelisted
		}
	}

	if _, err := s.participants.GetByPid(ctx, in.ConversationID, in.Pid); err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if _, err := s.statements.GetByID(ctx, in.ConversationID, in.Tid); err != nil {
		return nil, fmt.Errorf("get statement: %w", err)
	}

	vote, err := s.votes.Insert(ctx, &domain.Vote{
		ConversationID: in.ConversationID,
		Pid:            in.Pid,
		Tid:            in.Tid,
		Value:          in.Value,
		WeightX32767:   domain.EncodeWeight(in.Weight),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrDuplicateVote
		}
		return nil, fmt.Errorf("insert vote: %w", err)
	}

	s.bookkeeping.Add(1)
	go func() {
		defer s.bookkeeping.Done()
		// Detached from the request context: a caller hanging up must
		// not abort the counter and watermark updates.
		s.bookkeep(context.WithoutCancel(ctx), in, vote.Created)
	}()

	s.log.DebugContext(ctx, "vote cast",
		slog.Int64("conversation_id", in.ConversationID),
		slog.Int64("pid", in.Pid),
		slog.Int64("tid", in.Tid),
		slog.Int("value", int(in.Value)),
	)

	return vote, nil
}

// bookkeep runs the post-append side effects in one transaction.
func (s *Service) bookkeep(ctx context.Context, in CastInput, at time.Time) {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.participants.BumpVoteCount(txCtx, in.ConversationID, in.Pid); err != nil {
			return fmt.Errorf("bump vote count: %w", err)
		}
		if err := s.conversations.TouchModified(txCtx, in.ConversationID, at); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		if err := s.notify.Enqueue(txCtx, in.ConversationID, at); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
		if err := s.notify.TouchInteraction(txCtx, in.ConversationID, in.Pid, at); err != nil {
			return fmt.Errorf("touch interaction: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "vote bookkeeping failed",
			slog.Int64("conversation_id", in.ConversationID),
			slog.Int64("pid", in.Pid),
			slog.Int64("tid", in.Tid),
			slog.String("error", err.Error()),
		)
	}
}

// CurrentVotes returns the participant's latest vote per statement.
func (s *Service) CurrentVotes(ctx context.Context, conversationID, pid int64) ([]domain.Vote, error) {
	votes, err := s.votes.CurrentByPid(ctx, conversationID, pid)
	if err != nil {
		return nil, fmt.Errorf("current votes: %w", err)
	}
	return votes, nil
}
