package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openagora/agora-backend/internal/domain"
)

type subscribeRequest struct {
	ConversationID int64  `json:"conversation_id"`
	Pid            int64  `json:"pid"`
	Email          string `json:"email"`
}

func (s *Server) subscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, domain.NewValidationError("body", "malformed json"))
	}

	if err := s.subscriptions.Subscribe(c.Request().Context(), req.ConversationID, req.Pid, req.Email); err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "subscribed"})
}

// voteVectors serves encoded vote vectors to the math pipeline.
func (s *Server) voteVectors(c echo.Context) error {
	conversationID, err := queryInt64(c, "conversation_id")
	if err != nil {
		return s.writeError(c, err)
	}
	tick, err := queryInt64(c, "tick")
	if err != nil {
		return s.writeError(c, err)
	}
	pids, err := parseInt64List(c.QueryParam("pids"), "pids")
	if err != nil {
		return s.writeError(c, err)
	}
	if len(pids) == 0 {
		return s.writeError(c, domain.NewValidationError("pids", "required"))
	}

	vectors, err := s.vectors.VectorsFor(c.Request().Context(), conversationID, tick, pids)
	if err != nil {
		return s.writeError(c, err)
	}

	out := make(map[string]string, len(vectors))
	for pid, vec := range vectors {
		out[strconv.FormatInt(pid, 10)] = vec
	}

	return c.JSON(http.StatusOK, map[string]any{"tick": tick, "vectors": out})
}
