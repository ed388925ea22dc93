package mailer

import (
	"context"
	"log/slog"
)

// Stub logs mail instead of sending it. Used when no email API key is
// configured, e.g. in local development.
type Stub struct {
	log *slog.Logger
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{log: logger.With("adapter", "mailer_stub")}
}

func (s *Stub) Send(ctx context.Context, to, subject, _ string) error {
	s.log.InfoContext(ctx, "mail suppressed (stub)",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
