// Package participant implements participant and external-id binding
// persistence using PostgreSQL. The (conversation_id, uid) uniqueness
// constraint is the race backstop for concurrent first contact: both
// writers compute a pid, one insert wins, the loser surfaces
// domain.ErrAlreadyExists and the caller re-reads the winner's row.
package participant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides participant persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new participant repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const getByUIDSQL = `
SELECT conversation_id, pid, uid, vote_count, created
FROM participants
WHERE conversation_id = $1 AND uid = $2`

const getByPidSQL = `
SELECT conversation_id, pid, uid, vote_count, created
FROM participants
WHERE conversation_id = $1 AND pid = $2`

// createSQL assigns the next dense pid under the insert itself. Two
// concurrent inserts may compute the same pid; the primary key or the
// (conversation_id, uid) unique index rejects the loser with 23505.
const createSQL = `
INSERT INTO participants (conversation_id, pid, uid, vote_count, created)
VALUES (
    $1,
    (SELECT COALESCE(MAX(pid), -1) + 1 FROM participants WHERE conversation_id = $1),
    $2, 0, now()
)
RETURNING conversation_id, pid, uid, vote_count, created`

const bumpVoteCountSQL = `
UPDATE participants SET vote_count = vote_count + 1
WHERE conversation_id = $1 AND pid = $2`

// GetByUID returns the participant row for a (conversation, uid) pair.
// Returns domain.ErrNotFound if the user has never participated.
func (r *Repo) GetByUID(ctx context.Context, conversationID int64, uid uuid.UUID) (*domain.Participant, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var p domain.Participant
	err := querier.QueryRow(ctx, getByUIDSQL, conversationID, uid).Scan(
		&p.ConversationID, &p.Pid, &p.UID, &p.VoteCount, &p.Created,
	)
	if err != nil {
		return nil, postgres.MapError(err, "participant", uid)
	}

	return &p, nil
}

// GetByPid returns the participant row for a (conversation, pid) pair.
func (r *Repo) GetByPid(ctx context.Context, conversationID, pid int64) (*domain.Participant, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var p domain.Participant
	err := querier.QueryRow(ctx, getByPidSQL, conversationID, pid).Scan(
		&p.ConversationID, &p.Pid, &p.UID, &p.VoteCount, &p.Created,
	)
	if err != nil {
		return nil, postgres.MapError(err, "participant", fmt.Sprintf("%d:%d", conversationID, pid))
	}

	return &p, nil
}

// Create inserts a participant row with the next free pid for the
// conversation. Returns domain.ErrAlreadyExists when a concurrent create
// for the same uid (or the same pid) won the race.
func (r *Repo) Create(ctx context.Context, conversationID int64, uid uuid.UUID) (*domain.Participant, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var p domain.Participant
	err := querier.QueryRow(ctx, createSQL, conversationID, uid).Scan(
		&p.ConversationID, &p.Pid, &p.UID, &p.VoteCount, &p.Created,
	)
	if err != nil {
		return nil, postgres.MapError(err, "participant", uid)
	}

	return &p, nil
}

// BumpVoteCount increments the participant's denormalized vote counter.
// Best-effort side path; callers log rather than surface failures.
func (r *Repo) BumpVoteCount(ctx context.Context, conversationID, pid int64) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := querier.Exec(ctx, bumpVoteCountSQL, conversationID, pid); err != nil {
		return postgres.MapError(err, "participant", fmt.Sprintf("%d:%d", conversationID, pid))
	}

	return nil
}
