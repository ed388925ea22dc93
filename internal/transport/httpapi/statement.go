package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openagora/agora-backend/internal/domain"
	"github.com/openagora/agora-backend/internal/service/comment"
	"github.com/openagora/agora-backend/internal/service/scheduler"
)

type statementResponse struct {
	Tid    int64  `json:"tid"`
	Text   string `json:"txt"`
	Lang   string `json:"lang,omitempty"`
	IsSeed bool   `json:"is_seed,omitempty"`
}

type authorResponse struct {
	Pid       int64 `json:"pid"`
	VoteCount int   `json:"vote_count"`
}

type nextStatementResponse struct {
	Statement      *statementResponse `json:"statement"`
	TranslatedText string             `json:"translated_text,omitempty"`
	TranslatedLang string             `json:"translated_lang,omitempty"`
	Author         *authorResponse    `json:"author,omitempty"`
	Remaining      int                `json:"remaining"`
	Total          int                `json:"total"`
}

// nextStatement serves the next statement to vote on. A null statement
// with remaining 0 means the participant is done for now.
func (s *Server) nextStatement(c echo.Context) error {
	conversationID, err := queryInt64(c, "conversation_id")
	if err != nil {
		return s.writeError(c, err)
	}
	pid, err := queryInt64(c, "pid")
	if err != nil {
		return s.writeError(c, err)
	}

	exclude, err := parseInt64List(c.QueryParam("without"), "without")
	if err != nil {
		return s.writeError(c, err)
	}

	res, err := s.scheduler.NextStatement(c.Request().Context(), scheduler.NextInput{
		ConversationID: conversationID,
		Pid:            pid,
		Lang:           c.QueryParam("lang"),
		Exclude:        exclude,
		IncludeSocial:  c.QueryParam("include_social") == "true",
	})
	if err != nil {
		return s.writeError(c, err)
	}

	out := nextStatementResponse{Remaining: res.Remaining, Total: res.Total}
	if res.Statement != nil {
		out.Statement = &statementResponse{
			Tid:    res.Statement.Tid,
			Text:   res.Statement.Text,
			Lang:   res.Statement.Lang,
			IsSeed: res.Statement.IsSeed,
		}
	}
	if res.Translation != nil {
		out.TranslatedText = res.Translation.Text
		out.TranslatedLang = res.Translation.Lang
	}
	if res.Author != nil {
		out.Author = &authorResponse{Pid: res.Author.Pid, VoteCount: res.Author.VoteCount}
	}

	return c.JSON(http.StatusOK, out)
}

type submitStatementRequest struct {
	ConversationID int64  `json:"conversation_id"`
	Pid            int64  `json:"pid"`
	Text           string `json:"txt"`
	Lang           string `json:"lang"`
	IsSeed         bool   `json:"is_seed"`
}

func (s *Server) submitStatement(c echo.Context) error {
	var req submitStatementRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, domain.NewValidationError("body", "malformed json"))
	}

	st, err := s.comments.Submit(c.Request().Context(), comment.SubmitInput{
		ConversationID: req.ConversationID,
		Pid:            req.Pid,
		Text:           req.Text,
		Lang:           req.Lang,
		IsSeed:         req.IsSeed,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"tid":      st.Tid,
		"servable": st.Servable(false),
	})
}

// parseInt64List parses a comma-separated id list ("3,17,20").
func parseInt64List(raw, field string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, domain.NewValidationError(field, "must be a comma-separated list of integers")
		}
		out = append(out, id)
	}
	return out, nil
}
