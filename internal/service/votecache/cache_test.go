package votecache

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagora/agora-backend/internal/domain"
)

type mockVoteRepo struct {
	CurrentByPidsFunc func(ctx context.Context, conversationID int64, pids []int64) (map[int64][]domain.Vote, error)
}

func (m *mockVoteRepo) CurrentByPids(ctx context.Context, conversationID int64, pids []int64) (map[int64][]domain.Vote, error) {
	return m.CurrentByPidsFunc(ctx, conversationID, pids)
}

type mockStatementRepo struct {
	MaxTidFunc func(ctx context.Context, conversationID int64) (int64, error)
}

func (m *mockStatementRepo) MaxTid(ctx context.Context, conversationID int64) (int64, error) {
	return m.MaxTidFunc(ctx, conversationID)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildVector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		maxTid int64
		votes  []domain.Vote
		want   string
	}{
		{name: "no statements", maxTid: -1, want: ""},
		{name: "all unvoted", maxTid: 2, want: "uuu"},
		{
			name:   "mixed votes",
			maxTid: 3,
			votes: []domain.Vote{
				{Tid: 0, Value: domain.VoteAgree},
				{Tid: 1, Value: domain.VoteDisagree},
				{Tid: 3, Value: domain.VotePass},
			},
			want: "adup",
		},
		{
			name:   "vote past maxTid ignored",
			maxTid: 1,
			votes: []domain.Vote{
				{Tid: 0, Value: domain.VoteAgree},
				{Tid: 5, Value: domain.VoteAgree},
			},
			want: "au",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, buildVector(tt.maxTid, tt.votes))
		})
	}
}

func TestVectorsFor_BatchesMissesInOneRead(t *testing.T) {
	t.Parallel()

	var batchCalls int
	votes := &mockVoteRepo{
		CurrentByPidsFunc: func(_ context.Context, _ int64, pids []int64) (map[int64][]domain.Vote, error) {
			batchCalls++
			assert.ElementsMatch(t, []int64{0, 1, 2}, pids)
			return map[int64][]domain.Vote{
				0: {{Tid: 0, Value: domain.VoteAgree}},
				1: {{Tid: 1, Value: domain.VoteDisagree}},
			}, nil
		},
	}
	stmts := &mockStatementRepo{
		MaxTidFunc: func(context.Context, int64) (int64, error) { return 1, nil },
	}

	c, err := NewCache(newTestLogger(), votes, stmts, 16)
	require.NoError(t, err)

	got, err := c.VectorsFor(context.Background(), 1, 5, []int64{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, batchCalls)
	assert.Equal(t, map[int64]string{0: "au", 1: "ud", 2: "uu"}, got)
}

func TestVectorsFor_SameTickServedFromCache(t *testing.T) {
	t.Parallel()

	var batchCalls int
	votes := &mockVoteRepo{
		CurrentByPidsFunc: func(_ context.Context, _ int64, pids []int64) (map[int64][]domain.Vote, error) {
			batchCalls++
			return map[int64][]domain.Vote{}, nil
		},
	}
	stmts := &mockStatementRepo{
		MaxTidFunc: func(context.Context, int64) (int64, error) { return 0, nil },
	}

	c, err := NewCache(newTestLogger(), votes, stmts, 16)
	require.NoError(t, err)

	_, err = c.VectorsFor(context.Background(), 1, 5, []int64{0})
	require.NoError(t, err)
	_, err = c.VectorsFor(context.Background(), 1, 5, []int64{0})
	require.NoError(t, err)

	assert.Equal(t, 1, batchCalls)
}

func TestVectorsFor_LaterTickSatisfiesEarlierRequest(t *testing.T) {
	t.Parallel()

	var batchCalls int
	votes := &mockVoteRepo{
		CurrentByPidsFunc: func(_ context.Context, _ int64, pids []int64) (map[int64][]domain.Vote, error) {
			batchCalls++
			return map[int64][]domain.Vote{}, nil
		},
	}
	stmts := &mockStatementRepo{
		MaxTidFunc: func(context.Context, int64) (int64, error) { return 0, nil },
	}

	c, err := NewCache(newTestLogger(), votes, stmts, 16)
	require.NoError(t, err)

	_, err = c.VectorsFor(context.Background(), 1, 9, []int64{0})
	require.NoError(t, err)
	_, err = c.VectorsFor(context.Background(), 1, 3, []int64{0})
	require.NoError(t, err)

	assert.Equal(t, 1, batchCalls)
}

func TestVectorsFor_NewerTickForcesRebuild(t *testing.T) {
	t.Parallel()

	var batchCalls int
	votes := &mockVoteRepo{
		CurrentByPidsFunc: func(_ context.Context, _ int64, pids []int64) (map[int64][]domain.Vote, error) {
			batchCalls++
			return map[int64][]domain.Vote{}, nil
		},
	}
	stmts := &mockStatementRepo{
		MaxTidFunc: func(context.Context, int64) (int64, error) { return 0, nil },
	}

	c, err := NewCache(newTestLogger(), votes, stmts, 16)
	require.NoError(t, err)

	_, err = c.VectorsFor(context.Background(), 1, 3, []int64{0})
	require.NoError(t, err)
	_, err = c.VectorsFor(context.Background(), 1, 9, []int64{0})
	require.NoError(t, err)

	assert.Equal(t, 2, batchCalls)
}

func TestVectorsFor_InvalidateDropsEntry(t *testing.T) {
	t.Parallel()

	var batchCalls int
	votes := &mockVoteRepo{
		CurrentByPidsFunc: func(_ context.Context, _ int64, pids []int64) (map[int64][]domain.Vote, error) {
			batchCalls++
			return map[int64][]domain.Vote{}, nil
		},
	}
	stmts := &mockStatementRepo{
		MaxTidFunc: func(context.Context, int64) (int64, error) { return 0, nil },
	}

	c, err := NewCache(newTestLogger(), votes, stmts, 16)
	require.NoError(t, err)

	_, err = c.VectorsFor(context.Background(), 1, 5, []int64{0})
	require.NoError(t, err)

	c.Invalidate(1, 0)

	_, err = c.VectorsFor(context.Background(), 1, 5, []int64{0})
	require.NoError(t, err)

	assert.Equal(t, 2, batchCalls)
}
