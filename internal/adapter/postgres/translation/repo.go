// Package translation persists statement translations keyed by
// (conversation, tid, lang). The engine invokes the external provider at
// most once per gap; the persisted row answers every later request.
package translation

import (
	"context"
	"fmt"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides translation persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new translation repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const getSQL = `
SELECT conversation_id, tid, lang, txt, src, created
FROM statement_translations
WHERE conversation_id = $1 AND tid = $2 AND lang = $3`

// upsert keeps the first stored translation: a concurrent request for the
// same gap loses silently instead of overwriting.
const insertSQL = `
INSERT INTO statement_translations (conversation_id, tid, lang, txt, src, created)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (conversation_id, tid, lang) DO NOTHING`

// Get returns the stored translation for a statement and language.
func (r *Repo) Get(ctx context.Context, conversationID, tid int64, lang string) (*domain.Translation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var tr domain.Translation
	err := querier.QueryRow(ctx, getSQL, conversationID, tid, lang).Scan(
		&tr.ConversationID, &tr.Tid, &tr.Lang, &tr.Text, &tr.Source, &tr.Created,
	)
	if err != nil {
		return nil, postgres.MapError(err, "translation", fmt.Sprintf("%d:%d:%s", conversationID, tid, lang))
	}

	return &tr, nil
}

// Insert stores a translation, ignoring conflicts from concurrent fills.
func (r *Repo) Insert(ctx context.Context, tr *domain.Translation) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	_, err := querier.Exec(ctx, insertSQL,
		tr.ConversationID, tr.Tid, tr.Lang, tr.Text, tr.Source,
	)
	if err != nil {
		return postgres.MapError(err, "translation", fmt.Sprintf("%d:%d:%s", tr.ConversationID, tr.Tid, tr.Lang))
	}

	return nil
}
