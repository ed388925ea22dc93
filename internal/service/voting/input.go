package voting

import (
	"github.com/google/uuid"

	"github.com/openagora/agora-backend/internal/domain"
)

// CastInput carries one vote submission.
type CastInput struct {
	ConversationID int64
	Pid            int64
	Tid            int64
	Value          domain.VoteValue
	// Weight is an optional rational weight in [-1, 1]. Zero means
	// unweighted.
	Weight float64
	// OrgID and Xid identify the caller externally. Required when the
	// conversation enforces an xid whitelist.
	OrgID uuid.UUID
	Xid   string
}

func (in CastInput) validate() error {
	if !in.Value.IsValid() {
		return domain.NewValidationError("value", "must be -1, 0, or 1")
	}
	if in.Weight < -1 || in.Weight > 1 {
		return domain.NewValidationError("weight", "must be in [-1, 1]")
	}
	if in.Pid < 0 {
		return domain.NewValidationError("pid", "must be non-negative")
	}
	if in.Tid < 0 {
		return domain.NewValidationError("tid", "must be non-negative")
	}
	return nil
}
