package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openagora/agora-backend/internal/domain"
)

// SeedConversation creates an active conversation and returns it.
func SeedConversation(t *testing.T, pool *pgxpool.Pool) domain.Conversation {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	conv := domain.Conversation{
		OwnerUID: uuid.New(),
		OrgID:    uuid.New(),
		Active:   true,
		Modified: now,
		Created:  now,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO conversations (owner_uid, org_id, active, strict_moderation, use_xid_whitelist, prioritize_seed, modified, created)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		conv.OwnerUID, conv.OrgID, conv.Active, conv.StrictModeration,
		conv.UseXidWhitelist, conv.PrioritizeSeed, conv.Modified, conv.Created,
	).Scan(&conv.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedConversation: %v", err)
	}

	return conv
}

// SeedParticipant creates a participant with the next free pid.
func SeedParticipant(t *testing.T, pool *pgxpool.Pool, conversationID int64) domain.Participant {
	t.Helper()
	ctx := context.Background()

	p := domain.Participant{
		ConversationID: conversationID,
		UID:            uuid.New(),
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO participants (conversation_id, pid, uid, vote_count, created)
		 VALUES ($1, (SELECT COALESCE(MAX(pid), -1) + 1 FROM participants WHERE conversation_id = $1), $2, 0, now())
		 RETURNING pid, created`,
		conversationID, p.UID,
	).Scan(&p.Pid, &p.Created)
	if err != nil {
		t.Fatalf("testhelper: SeedParticipant: %v", err)
	}

	return p
}

// SeedStatement creates an active unmoderated statement authored by pid.
func SeedStatement(t *testing.T, pool *pgxpool.Pool, conversationID, pid int64, text string) domain.Statement {
	t.Helper()
	ctx := context.Background()

	st := domain.Statement{
		ConversationID: conversationID,
		Pid:            pid,
		Text:           text,
		Active:         true,
		Mod:            domain.ModUnmoderated,
		Velocity:       1,
		Lang:           "en",
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO statements (conversation_id, tid, pid, txt, active, mod, velocity, lang, is_seed, created)
		 VALUES ($1, (SELECT COALESCE(MAX(tid), -1) + 1 FROM statements WHERE conversation_id = $1), $2, $3, $4, $5, $6, $7, $8, now())
		 RETURNING tid, created`,
		conversationID, pid, st.Text, st.Active, int16(st.Mod), st.Velocity, st.Lang, st.IsSeed,
	).Scan(&st.Tid, &st.Created)
	if err != nil {
		t.Fatalf("testhelper: SeedStatement: %v", err)
	}

	return st
}

// SeedVote appends a vote row.
func SeedVote(t *testing.T, pool *pgxpool.Pool, conversationID, pid, tid int64, value domain.VoteValue) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO votes (conversation_id, pid, tid, vote, weight_x_32767, created)
		 VALUES ($1, $2, $3, $4, $5, clock_timestamp())`,
		conversationID, pid, tid, int16(value), int32(domain.WeightScale),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedVote: %v", err)
	}
}
