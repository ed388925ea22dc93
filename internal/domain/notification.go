package domain

import "time"

// NotificationTask is the single pending-activity row for a conversation.
// New activity bumps Watermark, never duplicates the row; the sweep
// consumes tasks destructively.
type NotificationTask struct {
	ConversationID int64
	Watermark      time.Time
}

// NotifyState tracks per-participant notification history for the backoff
// policy. Nsli counts notifications sent since the participant last
// interacted; an interaction resets it to zero.
type NotifyState struct {
	ConversationID  int64
	Pid             int64
	Subscribed      bool
	Email           string
	LastNotified    *time.Time
	LastInteraction *time.Time
	Nsli            int16
}

// MaxNsli is the cutoff after which a participant is never notified again
// until they interact.
const MaxNsli = 4
