// Package conversation implements the conversation repository using
// PostgreSQL. Conversation rows are created by conversation management,
// which lives outside this engine; this repo only reads them and bumps the
// modified watermark on activity.
package conversation

import (
	"context"
	"fmt"
	"time"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides conversation persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new conversation repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const getByIDSQL = `
SELECT id, owner_uid, org_id, active, strict_moderation, use_xid_whitelist,
       prioritize_seed, modified, created
FROM conversations
WHERE id = $1`

const touchModifiedSQL = `
UPDATE conversations SET modified = GREATEST(modified, $2) WHERE id = $1`

// GetByID returns a conversation by id.
// Returns domain.ErrNotFound if no row exists.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var c domain.Conversation
	err := querier.QueryRow(ctx, getByIDSQL, id).Scan(
		&c.ID, &c.OwnerUID, &c.OrgID, &c.Active, &c.StrictModeration,
		&c.UseXidWhitelist, &c.PrioritizeSeed, &c.Modified, &c.Created,
	)
	if err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}

	return &c, nil
}

// TouchModified advances the conversation's modified watermark. The
// watermark never moves backwards.
func (r *Repo) TouchModified(ctx context.Context, id int64, at time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := querier.Exec(ctx, touchModifiedSQL, id, at)
	if err != nil {
		return postgres.MapError(err, "conversation", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}

	return nil
}
