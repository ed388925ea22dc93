package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openagora/agora-backend/internal/domain"
)

// NextInput carries one next-statement request.
type NextInput struct {
	ConversationID int64
	Pid            int64
	// Lang is the caller's preferred language, empty for none.
	Lang string
	// Exclude lists tids the caller is already displaying and must not
	// be served again.
	Exclude []int64
	// IncludeSocial attaches the author of the picked statement.
	IncludeSocial bool
}

// NextStatement draws the next statement for the participant. Every
// eligible statement has a non-zero chance of selection; snapshot
// priorities bias the draw without ever starving a statement. A
// missing or stale snapshot degrades to uniform weights, never to an
// error.
func (s *Service) NextStatement(ctx context.Context, in NextInput) (*NextResult, error) {
	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownConversation
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	eligible, err := s.statements.EligibleForParticipant(ctx, in.ConversationID, in.Pid, conv.StrictModeration, in.Exclude)
	if err != nil {
		return nil, fmt.Errorf("eligible statements: %w", err)
	}

	total, err := s.statements.CountServable(ctx, in.ConversationID, conv.StrictModeration)
	if err != nil {
		return nil, fmt.Errorf("count servable: %w", err)
	}

	if len(eligible) == 0 {
		return &NextResult{Remaining: 0, Total: total}, nil
	}

	snap := s.latestSnapshot(ctx, in.ConversationID)
	picked := s.draw(eligible, snap, conv.PrioritizeSeed)

	res := &NextResult{
		Statement: picked,
		Remaining: len(eligible),
		Total:     total,
	}

	if in.Lang != "" && !domain.LangMatches(picked.Lang, in.Lang) {
		res.Translation = s.attachTranslation(ctx, picked, in.Lang)
	}

	if in.IncludeSocial {
		author, err := s.participants.GetByPid(ctx, in.ConversationID, picked.Pid)
		if err != nil {
			s.log.WarnContext(ctx, "author lookup failed, serving without social context",
				slog.Int64("tid", picked.Tid),
				slog.String("error", err.Error()),
			)
		} else {
			res.Author = author
		}
	}

	return res, nil
}

// latestSnapshot returns the newest priority snapshot, or nil when the
// math pipeline has not produced one yet.
func (s *Service) latestSnapshot(ctx context.Context, conversationID int64) *domain.PrioritySnapshot {
	snap, err := s.snapshots.Latest(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "snapshot read failed, using uniform weights",
				slog.Int64("conversation_id", conversationID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return snap
}

// draw picks one statement by cumulative weighted sampling. WeightFor
// returns DefaultPriority for statements the snapshot does not cover,
// so fresh statements compete from the moment they are created.
func (s *Service) draw(eligible []domain.Statement, snap *domain.PrioritySnapshot, boostSeed bool) *domain.Statement {
	weights := make([]float64, len(eligible))
	var sum float64
	for i := range eligible {
		w := snap.WeightFor(eligible[i].Tid)
		if boostSeed && eligible[i].IsSeed {
			w *= s.seedBoost
		}
		weights[i] = w
		sum += w
	}

	r := s.float64n(sum)
	var acc float64
	for i := range eligible {
		acc += weights[i]
		if r < acc {
			return &eligible[i]
		}
	}
	// Float accumulation can land r at the boundary; the last entry
	// takes it.
	return &eligible[len(eligible)-1]
}
