package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openagora/agora-backend/internal/domain"
	"github.com/openagora/agora-backend/pkg/ctxutil"
)

// errorResponse is the uniform error body. Reason is a stable machine
// code; Message is human-readable and may change.
type errorResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// writeError maps domain errors onto HTTP statuses and reason codes.
func (s *Server) writeError(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: "invalid_request", Message: ve.Error()})
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: "invalid_request", Message: err.Error()})
	case errors.Is(err, domain.ErrUnknownConversation):
		return c.JSON(http.StatusNotFound, errorResponse{Reason: "unknown_conversation", Message: "conversation does not exist"})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Reason: "not_found", Message: err.Error()})
	case errors.Is(err, domain.ErrConversationClosed):
		return c.JSON(http.StatusForbidden, errorResponse{Reason: "conversation_closed", Message: "conversation is not accepting activity"})
	case errors.Is(err, domain.ErrNotWhitelisted):
		return c.JSON(http.StatusForbidden, errorResponse{Reason: "not_whitelisted", Message: "identifier is not on the conversation whitelist"})
	case errors.Is(err, domain.ErrDuplicateVote):
		return c.JSON(http.StatusConflict, errorResponse{Reason: "duplicate_vote", Message: "identical vote already recorded"})
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Reason: "conflict", Message: err.Error()})
	}

	s.log.ErrorContext(c.Request().Context(), "request failed",
		slog.String("path", c.Path()),
		slog.String("request_id", ctxutil.RequestIDFromCtx(c.Request().Context())),
		slog.String("error", err.Error()),
	)
	return c.JSON(http.StatusInternalServerError, errorResponse{Reason: "internal", Message: "internal error"})
}
