package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openagora/agora-backend/internal/domain"
)

type initParticipantRequest struct {
	ConversationID int64  `json:"conversation_id"`
	UID            string `json:"uid"`
	OrgID          string `json:"org_id"`
	Xid            string `json:"xid"`
}

type identityResponse struct {
	UID string `json:"uid"`
	Pid int64  `json:"pid"`
}

// initParticipant resolves the caller to a participant. Exactly one of
// two identification modes applies: a uid (possibly absent, minting a
// new one) or an org-scoped external id.
func (s *Server) initParticipant(c echo.Context) error {
	var req initParticipantRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, domain.NewValidationError("body", "malformed json"))
	}

	ctx := c.Request().Context()

	if req.Xid != "" {
		orgID, err := uuid.Parse(req.OrgID)
		if err != nil {
			return s.writeError(c, domain.NewValidationError("org_id", "must be a uuid when xid is set"))
		}
		id, err := s.identity.ResolveXid(ctx, req.ConversationID, orgID, req.Xid)
		if err != nil {
			return s.writeError(c, err)
		}
		return c.JSON(http.StatusOK, identityResponse{UID: id.UID.String(), Pid: id.Pid})
	}

	uid := uuid.Nil
	if req.UID != "" {
		parsed, err := uuid.Parse(req.UID)
		if err != nil {
			return s.writeError(c, domain.NewValidationError("uid", "must be a uuid"))
		}
		uid = parsed
	}

	id, err := s.identity.Resolve(ctx, req.ConversationID, uid)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, identityResponse{UID: id.UID.String(), Pid: id.Pid})
}
