package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a user's conversation-scoped identity. At most one row
// exists per (ConversationID, UID); once assigned, Pid is immutable and is
// the join key for votes, statements, and notification state.
type Participant struct {
	ConversationID int64
	Pid            int64
	UID            uuid.UUID
	VoteCount      int
	Created        time.Time
}

// XidBinding maps an organization-scoped external id to a global user id.
// The same (OrgID, Xid) pair always resolves to the same UID, across
// sessions and processes.
type XidBinding struct {
	OrgID   uuid.UUID
	Xid     string
	UID     uuid.UUID
	Created time.Time
}

// Identity is the result of resolving a caller to a conversation participant.
type Identity struct {
	UID uuid.UUID
	Pid int64
}
