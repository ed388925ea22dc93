package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openagora/agora-backend/internal/config"
	"github.com/openagora/agora-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockConversationRepo struct {
	GetByIDFunc func(ctx context.Context, id int64) (*domain.Conversation, error)
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockParticipantRepo struct {
	GetByPidFunc func(ctx context.Context, conversationID, pid int64) (*domain.Participant, error)
}

func (m *mockParticipantRepo) GetByPid(ctx context.Context, conversationID, pid int64) (*domain.Participant, error) {
	if m.GetByPidFunc != nil {
		return m.GetByPidFunc(ctx, conversationID, pid)
	}
	return nil, domain.ErrNotFound
}

type mockStatementRepo struct {
	EligibleForParticipantFunc func(ctx context.Context, conversationID, pid int64, strict bool, exclude []int64) ([]domain.Statement, error)
	CountServableFunc          func(ctx context.Context, conversationID int64, strict bool) (int, error)
}

func (m *mockStatementRepo) EligibleForParticipant(ctx context.Context, conversationID, pid int64, strict bool, exclude []int64) ([]domain.Statement, error) {
	return m.EligibleForParticipantFunc(ctx, conversationID, pid, strict, exclude)
}

func (m *mockStatementRepo) CountServable(ctx context.Context, conversationID int64, strict bool) (int, error) {
	if m.CountServableFunc != nil {
		return m.CountServableFunc(ctx, conversationID, strict)
	}
	return 0, nil
}

type mockSnapshotRepo struct {
	LatestFunc func(ctx context.Context, conversationID int64) (*domain.PrioritySnapshot, error)
}

func (m *mockSnapshotRepo) Latest(ctx context.Context, conversationID int64) (*domain.PrioritySnapshot, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, conversationID)
	}
	return nil, domain.ErrNotFound
}

type mockTranslationRepo struct {
	GetFunc    func(ctx context.Context, conversationID, tid int64, lang string) (*domain.Translation, error)
	InsertFunc func(ctx context.Context, tr *domain.Translation) error
}

func (m *mockTranslationRepo) Get(ctx context.Context, conversationID, tid int64, lang string) (*domain.Translation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, conversationID, tid, lang)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTranslationRepo) Insert(ctx context.Context, tr *domain.Translation) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tr)
	}
	return nil
}

type mockTranslator struct {
	TranslateFunc func(ctx context.Context, text, targetLang string) (string, error)
}

func (m *mockTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return m.TranslateFunc(ctx, text, targetLang)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixtures struct {
	convs *mockConversationRepo
	parts *mockParticipantRepo
	stmts *mockStatementRepo
	snaps *mockSnapshotRepo
	trans *mockTranslationRepo
	prov  *mockTranslator
	cfg   config.SchedulerConfig
	seed  int64
}

func newFixtures() *fixtures {
	return &fixtures{
		convs: &mockConversationRepo{
			GetByIDFunc: func(_ context.Context, id int64) (*domain.Conversation, error) {
				return &domain.Conversation{ID: id, Active: true}, nil
			},
		},
		parts: &mockParticipantRepo{},
		stmts: &mockStatementRepo{},
		snaps: &mockSnapshotRepo{},
		trans: &mockTranslationRepo{},
		prov:  &mockTranslator{},
		cfg:   config.SchedulerConfig{SeedBoost: 1},
		seed:  1,
	}
}

func (f *fixtures) service() *Service {
	return NewService(newTestLogger(), f.cfg, f.convs, f.parts, f.stmts, f.snaps, f.trans, f.prov, rand.New(rand.NewSource(f.seed)))
}

func statements(tids ...int64) []domain.Statement {
	out := make([]domain.Statement, 0, len(tids))
	for _, tid := range tids {
		out = append(out, domain.Statement{
			ConversationID: 1,
			Tid:            tid,
			Text:           "statement",
			Active:         true,
			Velocity:       1,
			Lang:           "en",
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// NextStatement
// ---------------------------------------------------------------------------

func TestNextStatement_EmptyEligibleSet(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return nil, nil
	}
	f.stmts.CountServableFunc = func(context.Context, int64, bool) (int, error) {
		return 12, nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2})
	require.NoError(t, err)
	assert.Nil(t, res.Statement)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 12, res.Total)
}

func TestNextStatement_SingleCandidateAlwaysPicked(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(7), nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2})
	require.NoError(t, err)
	require.NotNil(t, res.Statement)
	assert.Equal(t, int64(7), res.Statement.Tid)
	assert.Equal(t, 1, res.Remaining)
}

func TestNextStatement_MissingSnapshotUsesUniformWeights(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(0, 1, 2), nil
	}
	f.snaps.LatestFunc = func(context.Context, int64) (*domain.PrioritySnapshot, error) {
		return nil, domain.ErrNotFound
	}

	// Uniform draw over 3 candidates: every tid must appear across
	// repeated picks.
	seen := map[int64]bool{}
	svc := f.service()
	for range 200 {
		res, err := svc.NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2})
		require.NoError(t, err)
		seen[res.Statement.Tid] = true
	}
	assert.Len(t, seen, 3)
}

func TestNextStatement_SnapshotBiasesDraw(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(0, 1), nil
	}
	f.snaps.LatestFunc = func(context.Context, int64) (*domain.PrioritySnapshot, error) {
		return &domain.PrioritySnapshot{
			ConversationID: 1,
			Tick:           5,
			Weights:        map[int64]float64{0: 99, 1: 1},
		}, nil
	}

	counts := map[int64]int{}
	svc := f.service()
	for range 500 {
		res, err := svc.NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2})
		require.NoError(t, err)
		counts[res.Statement.Tid]++
	}
	assert.Greater(t, counts[0], counts[1]*10)
	// The low-weight statement still surfaces: no starvation.
	assert.Greater(t, counts[1], 0)
}

func TestNextStatement_SeedBoost(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.cfg.SeedBoost = 50
	f.convs.GetByIDFunc = func(_ context.Context, id int64) (*domain.Conversation, error) {
		return &domain.Conversation{ID: id, Active: true, PrioritizeSeed: true}, nil
	}
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		sts := statements(0, 1)
		sts[1].IsSeed = true
		return sts, nil
	}

	counts := map[int64]int{}
	svc := f.service()
	for range 500 {
		res, err := svc.NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2})
		require.NoError(t, err)
		counts[res.Statement.Tid]++
	}
	assert.Greater(t, counts[1], counts[0])
}

func TestNextStatement_ExclusionsForwarded(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(_ context.Context, _, _ int64, _ bool, exclude []int64) ([]domain.Statement, error) {
		assert.Equal(t, []int64{4, 9}, exclude)
		return statements(2), nil
	}

	_, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, Exclude: []int64{4, 9}})
	require.NoError(t, err)
}

func TestNextStatement_UnknownConversation(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.convs.GetByIDFunc = func(context.Context, int64) (*domain.Conversation, error) {
		return nil, domain.ErrNotFound
	}

	_, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 404, Pid: 2})
	require.ErrorIs(t, err, domain.ErrUnknownConversation)
}

// ---------------------------------------------------------------------------
// Translation attach
// ---------------------------------------------------------------------------

func TestNextStatement_AttachesStoredTranslation(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(3), nil
	}
	f.trans.GetFunc = func(_ context.Context, _, tid int64, lang string) (*domain.Translation, error) {
		return &domain.Translation{ConversationID: 1, Tid: tid, Lang: lang, Text: "hola"}, nil
	}
	f.prov.TranslateFunc = func(context.Context, string, string) (string, error) {
		t.Fatal("provider must not be called when a stored translation exists")
		return "", nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, Lang: "es"})
	require.NoError(t, err)
	require.NotNil(t, res.Translation)
	assert.Equal(t, "hola", res.Translation.Text)
}

func TestNextStatement_FetchesAndPersistsTranslation(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(3), nil
	}
	f.prov.TranslateFunc = func(_ context.Context, text, lang string) (string, error) {
		assert.Equal(t, "es", lang)
		return "hola", nil
	}
	var persisted *domain.Translation
	f.trans.InsertFunc = func(_ context.Context, tr *domain.Translation) error {
		persisted = tr
		return nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, Lang: "es"})
	require.NoError(t, err)
	require.NotNil(t, res.Translation)
	assert.Equal(t, "hola", res.Translation.Text)
	require.NotNil(t, persisted)
	assert.Equal(t, "es", persisted.Lang)
}

func TestNextStatement_TranslationKeyedByLangPrefix(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(3), nil
	}
	// A row stored for "es" must satisfy an "es-MX" request without a
	// provider call.
	f.trans.GetFunc = func(_ context.Context, _, tid int64, lang string) (*domain.Translation, error) {
		assert.Equal(t, "es", lang)
		return &domain.Translation{ConversationID: 1, Tid: tid, Lang: "es", Text: "hola"}, nil
	}
	f.prov.TranslateFunc = func(context.Context, string, string) (string, error) {
		t.Fatal("region variants of a stored language must not re-translate")
		return "", nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, Lang: "es-MX"})
	require.NoError(t, err)
	require.NotNil(t, res.Translation)
	assert.Equal(t, "hola", res.Translation.Text)
}

func TestNextStatement_TranslationFailureServesOriginal(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(3), nil
	}
	f.prov.TranslateFunc = func(context.Context, string, string) (string, error) {
		return "", errors.New("provider down")
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, Lang: "es"})
	require.NoError(t, err)
	require.NotNil(t, res.Statement)
	assert.Nil(t, res.Translation)
}

func TestNextStatement_MatchingLangSkipsTranslation(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(3), nil
	}
	f.prov.TranslateFunc = func(context.Context, string, string) (string, error) {
		t.Fatal("no translation needed for a matching language")
		return "", nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, Lang: "en-US"})
	require.NoError(t, err)
	assert.Nil(t, res.Translation)
}

func TestNextStatement_IncludeSocialAttachesAuthor(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		stmts := statements(3)
		stmts[0].Pid = 9
		return stmts, nil
	}
	f.parts.GetByPidFunc = func(_ context.Context, conversationID, pid int64) (*domain.Participant, error) {
		assert.Equal(t, int64(1), conversationID)
		assert.Equal(t, int64(9), pid)
		return &domain.Participant{ConversationID: conversationID, Pid: pid, VoteCount: 3}, nil
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, IncludeSocial: true})
	require.NoError(t, err)
	require.NotNil(t, res.Author)
	assert.Equal(t, int64(9), res.Author.Pid)
}

func TestNextStatement_IncludeSocialDegradesOnLookupFailure(t *testing.T) {
	t.Parallel()

	f := newFixtures()
	f.stmts.EligibleForParticipantFunc = func(context.Context, int64, int64, bool, []int64) ([]domain.Statement, error) {
		return statements(3), nil
	}
	f.parts.GetByPidFunc = func(context.Context, int64, int64) (*domain.Participant, error) {
		return nil, errors.New("connection reset")
	}

	res, err := f.service().NextStatement(context.Background(), NextInput{ConversationID: 1, Pid: 2, IncludeSocial: true})
	require.NoError(t, err)
	require.NotNil(t, res.Statement)
	assert.Nil(t, res.Author)
}
