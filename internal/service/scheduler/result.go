package scheduler

import "github.com/openagora/agora-backend/internal/domain"

// NextResult is the outcome of one next-statement draw.
type NextResult struct {
	// Statement is nil when the participant has nothing left to vote on.
	Statement *domain.Statement
	// Translation is set when the caller asked for a language the
	// statement is not written in and a translation was available.
	Translation *domain.Translation
	// Author is the submitting participant, attached only when the
	// caller asked for social context.
	Author *domain.Participant
	// Remaining counts the statements still eligible for this
	// participant, including the one returned.
	Remaining int
	// Total counts all servable statements in the conversation.
	Total int
}
