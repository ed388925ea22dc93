package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openagora/agora-backend/internal/domain"
	"github.com/openagora/agora-backend/internal/service/voting"
)

type castVoteRequest struct {
	ConversationID int64   `json:"conversation_id"`
	Pid            int64   `json:"pid"`
	Tid            int64   `json:"tid"`
	Value          int16   `json:"value"`
	Weight         float64 `json:"weight"`
	OrgID          string  `json:"org_id"`
	Xid            string  `json:"xid"`
}

type voteResponse struct {
	ConversationID int64     `json:"conversation_id"`
	Pid            int64     `json:"pid"`
	Tid            int64     `json:"tid"`
	Value          int16     `json:"value"`
	Created        time.Time `json:"created"`
}

func (s *Server) castVote(c echo.Context) error {
	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, domain.NewValidationError("body", "malformed json"))
	}

	orgID := uuid.Nil
	if req.OrgID != "" {
		parsed, err := uuid.Parse(req.OrgID)
		if err != nil {
			return s.writeError(c, domain.NewValidationError("org_id", "must be a uuid"))
		}
		orgID = parsed
	}

	vote, err := s.voting.Cast(c.Request().Context(), voting.CastInput{
		ConversationID: req.ConversationID,
		Pid:            req.Pid,
		Tid:            req.Tid,
		Value:          domain.VoteValue(req.Value),
		Weight:         req.Weight,
		OrgID:          orgID,
		Xid:            req.Xid,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	// The cached vector for this participant is stale now.
	s.vectors.Invalidate(vote.ConversationID, vote.Pid)

	return c.JSON(http.StatusCreated, voteResponse{
		ConversationID: vote.ConversationID,
		Pid:            vote.Pid,
		Tid:            vote.Tid,
		Value:          int16(vote.Value),
		Created:        vote.Created,
	})
}

func (s *Server) currentVotes(c echo.Context) error {
	conversationID, err := queryInt64(c, "conversation_id")
	if err != nil {
		return s.writeError(c, err)
	}
	pid, err := queryInt64(c, "pid")
	if err != nil {
		return s.writeError(c, err)
	}

	votes, err := s.voting.CurrentVotes(c.Request().Context(), conversationID, pid)
	if err != nil {
		return s.writeError(c, err)
	}

	out := make([]voteResponse, 0, len(votes))
	for _, v := range votes {
		out = append(out, voteResponse{
			ConversationID: v.ConversationID,
			Pid:            v.Pid,
			Tid:            v.Tid,
			Value:          int16(v.Value),
			Created:        v.Created,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{"votes": out})
}

// queryInt64 parses a required int64 query parameter.
func queryInt64(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, domain.NewValidationError(name, "required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}
