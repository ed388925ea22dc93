package participant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

const getBindingSQL = `
SELECT org_id, xid, uid, created
FROM xid_bindings
WHERE org_id = $1 AND xid = $2`

// insertBindingSQL is an idempotent insert: a concurrent session binding
// the same xid wins silently and the caller re-reads the authoritative row.
const insertBindingSQL = `
INSERT INTO xid_bindings (org_id, xid, uid, created)
VALUES ($1, $2, $3, now())
ON CONFLICT (org_id, xid) DO NOTHING`

const xidWhitelistedSQL = `
SELECT EXISTS (SELECT 1 FROM xid_whitelist WHERE org_id = $1 AND xid = $2)`

// GetBinding returns the (org, xid) → uid binding.
// Returns domain.ErrNotFound if the external id has never been seen.
func (r *Repo) GetBinding(ctx context.Context, orgID uuid.UUID, xid string) (*domain.XidBinding, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var b domain.XidBinding
	err := querier.QueryRow(ctx, getBindingSQL, orgID, xid).Scan(&b.OrgID, &b.Xid, &b.UID, &b.Created)
	if err != nil {
		return nil, postgres.MapError(err, "xid_binding", xid)
	}

	return &b, nil
}

// InsertBinding records an (org, xid) → uid binding, ignoring conflicts.
// Callers must re-read afterwards: on a lost race the stored uid differs
// from the one passed in.
func (r *Repo) InsertBinding(ctx context.Context, orgID uuid.UUID, xid string, uid uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := querier.Exec(ctx, insertBindingSQL, orgID, xid, uid); err != nil {
		return postgres.MapError(err, "xid_binding", xid)
	}

	return nil
}

// XidWhitelisted reports whether an external id appears in the
// organization's whitelist.
func (r *Repo) XidWhitelisted(ctx context.Context, orgID uuid.UUID, xid string) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var ok bool
	if err := querier.QueryRow(ctx, xidWhitelistedSQL, orgID, xid).Scan(&ok); err != nil {
		return false, fmt.Errorf("xid whitelist %s: %w", xid, err)
	}

	return ok, nil
}
