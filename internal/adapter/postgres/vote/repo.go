// Package vote implements the append-only vote ledger using PostgreSQL.
// Rows are never updated or deleted; the latest row per (pid, tid) pair is
// authoritative for all decision-making and older rows remain for history.
package vote

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides vote ledger persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new vote repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// insertSQL relies on the (conversation_id, pid, tid, created) unique index:
// re-submitting an identical vote within the store's timestamp resolution
// violates it, which surfaces as domain.ErrDuplicateVote upstream.
const insertSQL = `
INSERT INTO votes (conversation_id, pid, tid, vote, weight_x_32767, created)
VALUES ($1, $2, $3, $4, $5, now())
RETURNING conversation_id, pid, tid, vote, weight_x_32767, created`

const currentByPidSQL = `
SELECT DISTINCT ON (pid, tid)
       conversation_id, pid, tid, vote, weight_x_32767, created
FROM votes
WHERE conversation_id = $1 AND pid = $2
ORDER BY pid, tid, created DESC`

const currentByPidsSQL = `
SELECT DISTINCT ON (pid, tid)
       conversation_id, pid, tid, vote, weight_x_32767, created
FROM votes
WHERE conversation_id = $1 AND pid = ANY($2::bigint[])
ORDER BY pid, tid, created DESC`

// voteRow mirrors the votes table for scany.
type voteRow struct {
	ConversationID int64     `db:"conversation_id"`
	Pid            int64     `db:"pid"`
	Tid            int64     `db:"tid"`
	Vote           int16     `db:"vote"`
	WeightX32767   int32     `db:"weight_x_32767"`
	Created        time.Time `db:"created"`
}

func (row voteRow) toDomain() domain.Vote {
	return domain.Vote{
		ConversationID: row.ConversationID,
		Pid:            row.Pid,
		Tid:            row.Tid,
		Value:          domain.VoteValue(row.Vote),
		WeightX32767:   row.WeightX32767,
		Created:        row.Created,
	}
}

// Insert appends a vote row; the store assigns the creation timestamp.
// Returns domain.ErrAlreadyExists on a same-instant duplicate.
func (r *Repo) Insert(ctx context.Context, v *domain.Vote) (*domain.Vote, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var row voteRow
	err := pgxscan.Get(ctx, querier, &row, insertSQL,
		v.ConversationID, v.Pid, v.Tid, int16(v.Value), v.WeightX32767,
	)
	if err != nil {
		return nil, postgres.MapError(err, "vote", fmt.Sprintf("%d:%d:%d", v.ConversationID, v.Pid, v.Tid))
	}

	inserted := row.toDomain()
	return &inserted, nil
}

// CurrentByPid returns the participant's current votes: the most recent row
// per (pid, tid) pair, in tid order.
func (r *Repo) CurrentByPid(ctx context.Context, conversationID, pid int64) ([]domain.Vote, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var rows []voteRow
	if err := pgxscan.Select(ctx, querier, &rows, currentByPidSQL, conversationID, pid); err != nil {
		return nil, postgres.MapError(err, "vote", fmt.Sprintf("%d:%d", conversationID, pid))
	}

	votes := make([]domain.Vote, len(rows))
	for i, row := range rows {
		votes[i] = row.toDomain()
	}

	return votes, nil
}

// CurrentByPids returns the current votes for several participants in one
// query, grouped by pid. Participants with no votes are absent from the map.
func (r *Repo) CurrentByPids(ctx context.Context, conversationID int64, pids []int64) (map[int64][]domain.Vote, error) {
	if len(pids) == 0 {
		return map[int64][]domain.Vote{}, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	var rows []voteRow
	if err := pgxscan.Select(ctx, querier, &rows, currentByPidsSQL, conversationID, pids); err != nil {
		return nil, postgres.MapError(err, "vote", conversationID)
	}

	grouped := make(map[int64][]domain.Vote, len(pids))
	for _, row := range rows {
		grouped[row.Pid] = append(grouped[row.Pid], row.toDomain())
	}

	return grouped, nil
}
