// Package statement implements the statement ("comment") repository using
// PostgreSQL. The eligible-set query is built dynamically with squirrel
// because exclusions and the moderation filter vary per request.
package statement

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides statement persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new statement repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// builder returns the shared squirrel statement builder ($N placeholders).
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// statementRow mirrors the statements table for scany.
type statementRow struct {
	ConversationID int64     `db:"conversation_id"`
	Tid            int64     `db:"tid"`
	Pid            int64     `db:"pid"`
	Txt            string    `db:"txt"`
	Active         bool      `db:"active"`
	Mod            int16     `db:"mod"`
	Velocity       int       `db:"velocity"`
	Lang           string    `db:"lang"`
	IsSeed         bool      `db:"is_seed"`
	Created        time.Time `db:"created"`
}

func (row statementRow) toDomain() domain.Statement {
	return domain.Statement{
		ConversationID: row.ConversationID,
		Tid:            row.Tid,
		Pid:            row.Pid,
		Text:           row.Txt,
		Active:         row.Active,
		Mod:            domain.ModStatus(row.Mod),
		Velocity:       row.Velocity,
		Lang:           row.Lang,
		IsSeed:         row.IsSeed,
		Created:        row.Created,
	}
}

var statementColumns = []string{
	"conversation_id", "tid", "pid", "txt", "active", "mod",
	"velocity", "lang", "is_seed", "created",
}

const getByIDSQL = `
SELECT conversation_id, tid, pid, txt, active, mod, velocity, lang, is_seed, created
FROM statements
WHERE conversation_id = $1 AND tid = $2`

const maxTidSQL = `
SELECT COALESCE(MAX(tid), -1) FROM statements WHERE conversation_id = $1`

// createSQL assigns the next dense tid under the insert; the primary key
// rejects the loser of a concurrent submission race with 23505.
const createSQL = `
INSERT INTO statements (conversation_id, tid, pid, txt, active, mod, velocity, lang, is_seed, created)
VALUES (
    $1,
    (SELECT COALESCE(MAX(tid), -1) + 1 FROM statements WHERE conversation_id = $1),
    $2, $3, $4, $5, $6, $7, $8, now()
)
RETURNING conversation_id, tid, pid, txt, active, mod, velocity, lang, is_seed, created`

// GetByID returns a statement by (conversation, tid).
func (r *Repo) GetByID(ctx context.Context, conversationID, tid int64) (*domain.Statement, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var row statementRow
	err := pgxscan.Get(ctx, querier, &row, getByIDSQL, conversationID, tid)
	if err != nil {
		return nil, postgres.MapError(err, "statement", fmt.Sprintf("%d:%d", conversationID, tid))
	}

	st := row.toDomain()
	return &st, nil
}

// eligibleFilter appends the serving rules to a query over
// statements s: active, moderation-passing, positive velocity, not in the
// exclusion list, and without a current vote from pid.
func eligibleFilter(q sq.SelectBuilder, conversationID, pid int64, strict bool, exclude []int64) sq.SelectBuilder {
	q = q.Where(sq.Eq{"s.conversation_id": conversationID}).
		Where(sq.Eq{"s.active": true}).
		Where(sq.Gt{"s.velocity": 0}).
		Where(`NOT EXISTS (
			SELECT 1 FROM votes v
			WHERE v.conversation_id = s.conversation_id AND v.tid = s.tid AND v.pid = ?
		)`, pid)

	if strict {
		q = q.Where(sq.Eq{"s.mod": int16(domain.ModApproved)})
	} else {
		q = q.Where(sq.NotEq{"s.mod": int16(domain.ModBanned)})
	}

	if len(exclude) > 0 {
		q = q.Where(sq.NotEq{"s.tid": exclude})
	}

	return q
}

// EligibleForParticipant returns the statements the participant may be
// shown next, in stable tid order.
func (r *Repo) EligibleForParticipant(ctx context.Context, conversationID, pid int64, strict bool, exclude []int64) ([]domain.Statement, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	cols := make([]string, len(statementColumns))
	for i, c := range statementColumns {
		cols[i] = "s." + c
	}

	q := eligibleFilter(builder().Select(cols...).From("statements s"), conversationID, pid, strict, exclude).
		OrderBy("s.tid ASC")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build eligible query: %w", err)
	}

	var rows []statementRow
	if err := pgxscan.Select(ctx, querier, &rows, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, "statement", conversationID)
	}

	statements := make([]domain.Statement, len(rows))
	for i, row := range rows {
		statements[i] = row.toDomain()
	}

	return statements, nil
}

// CountEligible returns the size of the participant's current eligible set,
// ignoring caller-side exclusions.
func (r *Repo) CountEligible(ctx context.Context, conversationID, pid int64, strict bool) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	q := eligibleFilter(builder().Select("count(*)").From("statements s"), conversationID, pid, strict, nil)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build eligible count query: %w", err)
	}

	var count int
	if err := querier.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, postgres.MapError(err, "statement", conversationID)
	}

	return count, nil
}

// CountServable returns the size of the conversation's full servable set,
// independent of any participant. Used as the "total" in progress display.
func (r *Repo) CountServable(ctx context.Context, conversationID int64, strict bool) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	q := builder().Select("count(*)").From("statements s").
		Where(sq.Eq{"s.conversation_id": conversationID}).
		Where(sq.Eq{"s.active": true}).
		Where(sq.Gt{"s.velocity": 0})
	if strict {
		q = q.Where(sq.Eq{"s.mod": int16(domain.ModApproved)})
	} else {
		q = q.Where(sq.NotEq{"s.mod": int16(domain.ModBanned)})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build servable count query: %w", err)
	}

	var count int
	if err := querier.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, postgres.MapError(err, "statement", conversationID)
	}

	return count, nil
}

// MaxTid returns the conversation's highest statement id, or -1 when the
// conversation has no statements yet.
func (r *Repo) MaxTid(ctx context.Context, conversationID int64) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var maxTid int64
	if err := querier.QueryRow(ctx, maxTidSQL, conversationID).Scan(&maxTid); err != nil {
		return 0, postgres.MapError(err, "statement", conversationID)
	}

	return maxTid, nil
}

// Create inserts a statement with the next free tid for the conversation.
// Returns domain.ErrAlreadyExists when a concurrent submission won the tid.
func (r *Repo) Create(ctx context.Context, st *domain.Statement) (*domain.Statement, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var row statementRow
	err := pgxscan.Get(ctx, querier, &row, createSQL,
		st.ConversationID, st.Pid, st.Text, st.Active, int16(st.Mod),
		st.Velocity, st.Lang, st.IsSeed,
	)
	if err != nil {
		return nil, postgres.MapError(err, "statement", st.ConversationID)
	}

	created := row.toDomain()
	return &created, nil
}
