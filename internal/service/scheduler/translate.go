package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openagora/agora-backend/internal/domain"
)

// attachTranslation returns the statement's translation into lang,
// fetching and persisting it on first request. Lookup and storage are
// keyed by the primary subtag, so "en" and "en-US" share one row and
// the provider is invoked at most once per (tid, prefix). Any failure
// degrades to serving the original text: a missing translation is
// never worth failing the draw.
func (s *Service) attachTranslation(ctx context.Context, st *domain.Statement, lang string) *domain.Translation {
	lang = domain.LangPrefix(lang)
	existing, err := s.translations.Get(ctx, st.ConversationID, st.Tid, lang)
	if err == nil {
		return existing
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.log.WarnContext(ctx, "translation read failed",
			slog.Int64("tid", st.Tid),
			slog.String("lang", lang),
			slog.String("error", err.Error()),
		)
		return nil
	}

	text, err := s.translator.Translate(ctx, st.Text, lang)
	if err != nil {
		s.log.WarnContext(ctx, "translation provider failed, serving original",
			slog.Int64("tid", st.Tid),
			slog.String("lang", lang),
			slog.String("error", err.Error()),
		)
		return nil
	}

	tr := &domain.Translation{
		ConversationID: st.ConversationID,
		Tid:            st.Tid,
		Lang:           lang,
		Text:           text,
		Source:         "machine",
	}

	// Insert is first-write-wins; a lost race just means a concurrent
	// request persisted the same translation.
	if err := s.translations.Insert(ctx, tr); err != nil {
		s.log.WarnContext(ctx, "translation persist failed",
			slog.Int64("tid", st.Tid),
			slog.String("lang", lang),
			slog.String("error", err.Error()),
		)
	}

	return tr
}
