package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/openagora/agora-backend/internal/domain"
)

// maxStatementLen caps submission length in runes.
const maxStatementLen = 997

// createAttempts bounds tid-collision retries on statement creation.
const createAttempts = 3

// SubmitInput carries one statement submission.
type SubmitInput struct {
	ConversationID int64
	Pid            int64
	Text           string
	// Lang is the submitter's declared language, empty for unknown.
	Lang string
	// IsSeed marks owner-authored seed statements.
	IsSeed bool
}

func (in SubmitInput) validate() (string, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return "", domain.NewValidationError("text", "required")
	}
	if utf8.RuneCountInString(text) > maxStatementLen {
		return "", domain.NewValidationError("text", fmt.Sprintf("must be at most %d characters", maxStatementLen))
	}
	if in.Pid < 0 {
		return "", domain.NewValidationError("pid", "must be non-negative")
	}
	return text, nil
}

// Submit adds a statement to the conversation. Spam and profanity
// checks run first; a flagged submission is still stored but held back
// from serving until a moderator clears it. A screening provider
// failure counts as not flagged, so an outage never blocks
// submissions.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.Statement, error) {
	text, err := in.validate()
	if err != nil {
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

	if _, err := s.participants.GetByPid(ctx, in.ConversationID, in.Pid); err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	flagged := s.screen(ctx, text)

	st := &domain.Statement{
		ConversationID: in.ConversationID,
		Pid:            in.Pid,
		Text:           text,
		Active:         true,
		Mod:            domain.ModUnmoderated,
		Velocity:       1,
		Lang:           in.Lang,
		IsSeed:         in.IsSeed,
	}
	if flagged {
		// Velocity 0 keeps the statement out of every draw until a
		// moderator restores it.
		st.Velocity = 0
	}

	// The tid is assigned under the insert, so a concurrent submission
	// can take the same one; the loser retries with the next tid.
	var created *domain.Statement
	for attempt := 1; ; attempt++ {
		created, err = s.statements.Create(ctx, st)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("create statement: %w", err)
		}
		if attempt == createAttempts {
			return nil, fmt.Errorf("create statement after %d attempts: %w", attempt, err)
		}
	}

	if err := s.conversations.TouchModified(ctx, in.ConversationID, created.Created); err != nil {
		s.log.WarnContext(ctx, "watermark bump failed",
			slog.Int64("conversation_id", in.ConversationID),
			slog.String("error", err.Error()),
		)
	}
	if !flagged {
		if err := s.notify.Enqueue(ctx, in.ConversationID, created.Created); err != nil {
			s.log.WarnContext(ctx, "notification enqueue failed",
				slog.Int64("conversation_id", in.ConversationID),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := s.notify.TouchInteraction(ctx, in.ConversationID, in.Pid, created.Created); err != nil {
		s.log.WarnContext(ctx, "interaction touch failed",
			slog.Int64("conversation_id", in.ConversationID),
			slog.Int64("pid", in.Pid),
			slog.String("error", err.Error()),
		)
	}

	s.log.InfoContext(ctx, "statement submitted",
		slog.Int64("conversation_id", in.ConversationID),
		slog.Int64("tid", created.Tid),
		slog.Bool("flagged", flagged),
	)

	return created, nil
}

// screen runs both content checks and reports whether either flagged
// the text.
func (s *Service) screen(ctx context.Context, text string) bool {
	spam, err := s.spam.IsSpam(ctx, text)
	if err != nil {
		s.log.WarnContext(ctx, "spam check unavailable", slog.String("error", err.Error()))
		spam = false
	}

	profane, err := s.profanity.HasProfanity(ctx, text)
	if err != nil {
		s.log.WarnContext(ctx, "profanity check unavailable", slog.String("error", err.Error()))
		profane = false
	}

	return spam || profane
}
