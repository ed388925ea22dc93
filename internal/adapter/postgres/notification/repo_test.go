package notification

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagora/agora-backend/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock
}

func TestRepo_Enqueue_Upserts(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := New(mock)
	watermark := time.Now()

	mock.ExpectExec(`INSERT INTO notification_tasks`).
		WithArgs(int64(3), watermark).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Enqueue(context.Background(), 3, watermark))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_ClaimOne_Empty(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := New(mock)

	mock.ExpectQuery(`DELETE FROM notification_tasks`).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.ClaimOne(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_ClaimOne_PopsTask(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := New(mock)
	watermark := time.Now()

	mock.ExpectQuery(`DELETE FROM notification_tasks`).
		WillReturnRows(pgxmock.NewRows([]string{"conversation_id", "watermark"}).
			AddRow(int64(9), watermark))

	task, err := repo.ClaimOne(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(9), task.ConversationID)
	assert.Equal(t, watermark, task.Watermark)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_PendingCandidates(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := New(mock)
	watermark := time.Now()
	lastNotified := watermark.Add(-2 * time.Hour)

	mock.ExpectQuery(`SELECT conversation_id, pid, subscribed`).
		WithArgs(int64(3), watermark).
		WillReturnRows(pgxmock.NewRows([]string{
			"conversation_id", "pid", "subscribed", "email", "last_notified", "last_interaction", "nsli",
		}).
			AddRow(int64(3), int64(1), true, "a@example.com", &lastNotified, (*time.Time)(nil), int16(1)).
			AddRow(int64(3), int64(2), true, "b@example.com", (*time.Time)(nil), (*time.Time)(nil), int16(0)))

	states, err := repo.PendingCandidates(context.Background(), 3, watermark)

	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, int16(1), states[0].Nsli)
	require.NotNil(t, states[0].LastNotified)
	assert.Nil(t, states[1].LastNotified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_MarkNotified_MissingRow(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := New(mock)

	mock.ExpectExec(`UPDATE participant_notify_state`).
		WithArgs(int64(3), int64(1), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.MarkNotified(context.Background(), 3, 1, time.Now())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
