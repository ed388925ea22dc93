// Package notification implements the durable notification task queue and
// per-participant notification state using PostgreSQL.
//
// The queue is one row per conversation with pending activity. Enqueue is
// an upsert that bumps the watermark; claiming atomically removes one row
// under FOR UPDATE SKIP LOCKED so concurrent sweep workers never process
// the same task, in random order so no conversation starves.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides notification queue and state persistence.
type Repo struct {
	db postgres.Querier
}

// New creates a new notification repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const enqueueSQL = `
INSERT INTO notification_tasks (conversation_id, watermark)
VALUES ($1, $2)
ON CONFLICT (conversation_id)
DO UPDATE SET watermark = GREATEST(notification_tasks.watermark, EXCLUDED.watermark)`

const claimSQL = `
DELETE FROM notification_tasks
WHERE conversation_id IN (
    SELECT conversation_id FROM notification_tasks
    ORDER BY random()
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING conversation_id, watermark`

const pendingCandidatesSQL = `
SELECT conversation_id, pid, subscribed, email, last_notified, last_interaction, nsli
FROM participant_notify_state
WHERE conversation_id = $1
  AND subscribed
  AND (last_notified IS NULL OR last_notified < $2)
ORDER BY pid`

const markNotifiedSQL = `
UPDATE participant_notify_state
SET last_notified = $3, nsli = nsli + 1
WHERE conversation_id = $1 AND pid = $2`

const touchInteractionSQL = `
INSERT INTO participant_notify_state (conversation_id, pid, subscribed, email, last_interaction, nsli)
VALUES ($1, $2, false, '', $3, 0)
ON CONFLICT (conversation_id, pid)
DO UPDATE SET last_interaction = EXCLUDED.last_interaction, nsli = 0`

const subscribeSQL = `
INSERT INTO participant_notify_state (conversation_id, pid, subscribed, email, nsli)
VALUES ($1, $2, true, $3, 0)
ON CONFLICT (conversation_id, pid)
DO UPDATE SET subscribed = true, email = EXCLUDED.email`

// Enqueue records pending activity for a conversation. Idempotent: an
// already queued conversation only has its watermark bumped forward.
func (r *Repo) Enqueue(ctx context.Context, conversationID int64, watermark time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := querier.Exec(ctx, enqueueSQL, conversationID, watermark); err != nil {
		return postgres.MapError(err, "notification_task", conversationID)
	}

	return nil
}

// ClaimOne atomically pops one pending task, chosen at random among the
// unclaimed ones. Returns domain.ErrNotFound when the queue is empty.
func (r *Repo) ClaimOne(ctx context.Context) (*domain.NotificationTask, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var task domain.NotificationTask
	err := querier.QueryRow(ctx, claimSQL).Scan(&task.ConversationID, &task.Watermark)
	if err != nil {
		return nil, postgres.MapError(err, "notification_task", "claim")
	}

	return &task, nil
}

// notifyStateRow mirrors participant_notify_state for scany.
type notifyStateRow struct {
	ConversationID  int64      `db:"conversation_id"`
	Pid             int64      `db:"pid"`
	Subscribed      bool       `db:"subscribed"`
	Email           string     `db:"email"`
	LastNotified    *time.Time `db:"last_notified"`
	LastInteraction *time.Time `db:"last_interaction"`
	Nsli            int16      `db:"nsli"`
}

// PendingCandidates returns subscribed participants whose last notification
// precedes the activity watermark.
func (r *Repo) PendingCandidates(ctx context.Context, conversationID int64, watermark time.Time) ([]domain.NotifyState, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var rows []notifyStateRow
	if err := pgxscan.Select(ctx, querier, &rows, pendingCandidatesSQL, conversationID, watermark); err != nil {
		return nil, postgres.MapError(err, "participant_notify_state", conversationID)
	}

	states := make([]domain.NotifyState, len(rows))
	for i, row := range rows {
		states[i] = domain.NotifyState{
			ConversationID:  row.ConversationID,
			Pid:             row.Pid,
			Subscribed:      row.Subscribed,
			Email:           row.Email,
			LastNotified:    row.LastNotified,
			LastInteraction: row.LastInteraction,
			Nsli:            row.Nsli,
		}
	}

	return states, nil
}

// MarkNotified sets last_notified and increments nsli after a delivery
// attempt. The policy decision stands even when the send itself failed.
func (r *Repo) MarkNotified(ctx context.Context, conversationID, pid int64, at time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	tag, err := querier.Exec(ctx, markNotifiedSQL, conversationID, pid, at)
	if err != nil {
		return postgres.MapError(err, "participant_notify_state", fmt.Sprintf("%d:%d", conversationID, pid))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("participant_notify_state %d:%d: %w", conversationID, pid, domain.ErrNotFound)
	}

	return nil
}

// TouchInteraction records participant activity, resetting the backoff
// counter. Creates the state row if the participant has none yet.
func (r *Repo) TouchInteraction(ctx context.Context, conversationID, pid int64, at time.Time) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := querier.Exec(ctx, touchInteractionSQL, conversationID, pid, at); err != nil {
		return postgres.MapError(err, "participant_notify_state", fmt.Sprintf("%d:%d", conversationID, pid))
	}

	return nil
}

// Subscribe opts a participant into email notifications.
func (r *Repo) Subscribe(ctx context.Context, conversationID, pid int64, email string) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := querier.Exec(ctx, subscribeSQL, conversationID, pid, email); err != nil {
		return postgres.MapError(err, "participant_notify_state", fmt.Sprintf("%d:%d", conversationID, pid))
	}

	return nil
}
