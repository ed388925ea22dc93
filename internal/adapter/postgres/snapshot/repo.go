// Package snapshot implements read-only access to externally computed
// priority snapshots. The analysis pipeline publishes one immutable row per
// (conversation, tick); this repo only ever reads the highest tick, which
// makes the accessor monotonic by construction.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	postgres "github.com/openagora/agora-backend/internal/adapter/postgres"
	"github.com/openagora/agora-backend/internal/domain"
)

// Repo provides priority snapshot access backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new snapshot repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const latestSQL = `
SELECT conversation_id, tick, weights, clusters, created
FROM priority_snapshots
WHERE conversation_id = $1
ORDER BY tick DESC
LIMIT 1`

// Latest returns the newest snapshot for a conversation.
// Returns domain.ErrNotFound when the pipeline has not published one yet.
func (r *Repo) Latest(ctx context.Context, conversationID int64) (*domain.PrioritySnapshot, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var (
		s             domain.PrioritySnapshot
		weightsBytes  []byte
		clustersBytes []byte
	)
	err := querier.QueryRow(ctx, latestSQL, conversationID).Scan(
		&s.ConversationID, &s.Tick, &weightsBytes, &clustersBytes, &s.Created,
	)
	if err != nil {
		return nil, postgres.MapError(err, "priority_snapshot", conversationID)
	}

	s.Weights, err = unmarshalWeights(weightsBytes)
	if err != nil {
		return nil, fmt.Errorf("priority_snapshot %d tick %d: %w", conversationID, s.Tick, err)
	}

	s.Clusters, err = unmarshalClusters(clustersBytes)
	if err != nil {
		return nil, fmt.Errorf("priority_snapshot %d tick %d: %w", conversationID, s.Tick, err)
	}

	return &s, nil
}

// The pipeline stores jsonb objects keyed by decimal statement/participant
// ids, e.g. {"0": 1.5, "3": 0.2}. Keys that fail to parse are rejected so a
// corrupt artifact is noticed instead of silently defaulting.

func unmarshalWeights(data []byte) (map[int64]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}

	weights := make(map[int64]float64, len(raw))
	for k, v := range raw {
		tid, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("weights key %q: %w", k, err)
		}
		weights[tid] = v
	}

	return weights, nil
}

func unmarshalClusters(data []byte) (map[int64]int, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal clusters: %w", err)
	}

	clusters := make(map[int64]int, len(raw))
	for k, v := range raw {
		pid, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("clusters key %q: %w", k, err)
		}
		clusters[pid] = v
	}

	return clusters, nil
}
