package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the container for statements and votes. Rows are created
// by conversation management, which is outside this engine; vote and comment
// activity only ever bumps Modified.
type Conversation struct {
	ID                  int64
	OwnerUID            uuid.UUID
	OrgID               uuid.UUID
	Active              bool
	StrictModeration    bool
	UseXidWhitelist     bool
	PrioritizeSeed      bool
	Modified            time.Time
	Created             time.Time
}

// AcceptsActivity reports whether the conversation accepts new votes and
// statements.
func (c *Conversation) AcceptsActivity() bool {
	return c.Active
}
