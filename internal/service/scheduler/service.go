// Package scheduler picks the next statement to show a participant. The
// pick is a weighted random draw over the participant's eligible set,
// weighted by the latest priority snapshot from the math pipeline.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/openagora/agora-backend/internal/config"
	"github.com/openagora/agora-backend/internal/domain"
)

type conversationRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
}

type participantRepo interface {
	GetByPid(ctx context.Context, conversationID, pid int64) (*domain.Participant, error)
}

type statementRepo interface {
	EligibleForParticipant(ctx context.Context, conversationID, pid int64, strict bool, exclude []int64) ([]domain.Statement, error)
	CountServable(ctx context.Context, conversationID int64, strict bool) (int, error)
}

type snapshotRepo interface {
	Latest(ctx context.Context, conversationID int64) (*domain.PrioritySnapshot, error)
}

type translationRepo interface {
	Get(ctx context.Context, conversationID, tid int64, lang string) (*domain.Translation, error)
	Insert(ctx context.Context, tr *domain.Translation) error
}

type translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Service implements next-statement selection.
type Service struct {
	log           *slog.Logger
	conversations conversationRepo
	participants  participantRepo
	statements    statementRepo
	snapshots     snapshotRepo
	translations  translationRepo
	translator    translator
	seedBoost     float64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a new scheduler service. rng is the draw source;
// tests pass a seeded one for deterministic picks.
func NewService(
	logger *slog.Logger,
	cfg config.SchedulerConfig,
	conversations conversationRepo,
	participants participantRepo,
	statements statementRepo,
	snapshots snapshotRepo,
	translations translationRepo,
	translator translator,
	rng *rand.Rand,
) *Service {
	boost := cfg.SeedBoost
	if boost <= 0 {
		boost = 1
	}
	return &Service{
		log:           logger.With("service", "scheduler"),
		conversations: conversations,
		participants:  participants,
		statements:    statements,
		snapshots:     snapshots,
		translations:  translations,
		translator:    translator,
		seedBoost:     boost,
		rng:           rng,
	}
}

// float64n returns a uniform draw in [0, n). The rng is shared across
// request goroutines and is not safe for concurrent use on its own.
func (s *Service) float64n(n float64) float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() * n
}
