package notify

import (
	"time"

	"github.com/openagora/agora-backend/internal/domain"
)

type decision int

const (
	decisionNotify decision = iota
	decisionDefer
	decisionSkip
)

// decide applies the backoff policy to one candidate.
//
// The ladder stretches the minimum gap between sends as notifications
// pile up without a response (nsli = notifications since last
// interaction). At MaxNsli the participant goes quiet until they come
// back. A participant seen within the recent window is deferred, not
// skipped: they are on the site right now and an email would be noise,
// but they should still hear about activity they end up missing.
func (s *Sweeper) decide(cand domain.NotifyState, now time.Time) decision {
	if !cand.Subscribed || cand.Email == "" {
		return decisionSkip
	}
	if cand.Nsli >= domain.MaxNsli {
		return decisionSkip
	}

	if cand.LastInteraction != nil && now.Sub(*cand.LastInteraction) < s.recentWindow {
		return decisionDefer
	}

	if cand.LastNotified != nil && len(s.backoff) > 0 {
		step := int(cand.Nsli)
		if step >= len(s.backoff) {
			step = len(s.backoff) - 1
		}
		if step < 0 {
			step = 0
		}
		if now.Sub(*cand.LastNotified) < s.backoff[step] {
			return decisionDefer
		}
	}

	return decisionNotify
}
