// Package votecache serves participant vote vectors to the math
// pipeline. Vectors are cached per participant and tagged with the
// pipeline tick they were built for, so a cached vector is reusable
// whenever its tick is at least the requested one.
package votecache

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openagora/agora-backend/internal/domain"
)

type voteRepo interface {
	CurrentByPids(ctx context.Context, conversationID int64, pids []int64) (map[int64][]domain.Vote, error)
}

type statementRepo interface {
	MaxTid(ctx context.Context, conversationID int64) (int64, error)
}

type cacheKey struct {
	ConversationID int64
	Pid            int64
}

type cacheEntry struct {
	Tick   int64
	Vector string
}

// Cache builds and caches vote vectors.
type Cache struct {
	log        *slog.Logger
	votes      voteRepo
	statements statementRepo
	entries    *lru.Cache[cacheKey, cacheEntry]
}

// NewCache creates a vote-vector cache holding at most size entries.
func NewCache(logger *slog.Logger, votes voteRepo, statements statementRepo, size int) (*Cache, error) {
	entries, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{
		log:        logger.With("service", "votecache"),
		votes:      votes,
		statements: statements,
		entries:    entries,
	}, nil
}

// VectorsFor returns one vote vector per requested pid, built against
// statement state no older than tick. Cached vectors from the same or
// a later tick are served as-is; the rest are rebuilt in one batched
// ledger read.
func (c *Cache) VectorsFor(ctx context.Context, conversationID, tick int64, pids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(pids))

	var misses []int64
	for _, pid := range pids {
		entry, ok := c.entries.Get(cacheKey{ConversationID: conversationID, Pid: pid})
		if ok && entry.Tick >= tick {
			out[pid] = entry.Vector
			continue
		}
		misses = append(misses, pid)
	}

	if len(misses) == 0 {
		return out, nil
	}

	maxTid, err := c.statements.MaxTid(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("max tid: %w", err)
	}

	votesByPid, err := c.votes.CurrentByPids(ctx, conversationID, misses)
	if err != nil {
		return nil, fmt.Errorf("current votes: %w", err)
	}

	for _, pid := range misses {
		vector := buildVector(maxTid, votesByPid[pid])
		out[pid] = vector
		c.entries.Add(cacheKey{ConversationID: conversationID, Pid: pid}, cacheEntry{Tick: tick, Vector: vector})
	}

	c.log.DebugContext(ctx, "vote vectors rebuilt",
		slog.Int64("conversation_id", conversationID),
		slog.Int64("tick", tick),
		slog.Int("misses", len(misses)),
	)

	return out, nil
}

// Invalidate drops the cached vector for one participant. Called after
// a vote so the next pipeline read rebuilds it.
func (c *Cache) Invalidate(conversationID, pid int64) {
	c.entries.Remove(cacheKey{ConversationID: conversationID, Pid: pid})
}

// buildVector encodes current votes as one character per tid in
// [0, maxTid]. A conversation with no statements yields an empty
// vector.
func buildVector(maxTid int64, votes []domain.Vote) string {
	if maxTid < 0 {
		return ""
	}
	buf := make([]byte, maxTid+1)
	for i := range buf {
		buf[i] = domain.VectorUnvoted
	}
	for _, v := range votes {
		if v.Tid >= 0 && v.Tid <= maxTid {
			buf[v.Tid] = v.Value.VectorChar()
		}
	}
	return string(buf)
}
