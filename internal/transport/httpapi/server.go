// Package httpapi exposes the participation engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/openagora/agora-backend/internal/config"
	"github.com/openagora/agora-backend/internal/domain"
	"github.com/openagora/agora-backend/internal/service/comment"
	"github.com/openagora/agora-backend/internal/service/scheduler"
	"github.com/openagora/agora-backend/internal/service/voting"
	"github.com/openagora/agora-backend/pkg/ctxutil"
)

type identityService interface {
	Resolve(ctx context.Context, conversationID int64, uid uuid.UUID) (*domain.Identity, error)
	ResolveXid(ctx context.Context, conversationID int64, orgID uuid.UUID, xid string) (*domain.Identity, error)
}

type votingService interface {
	Cast(ctx context.Context, in voting.CastInput) (*domain.Vote, error)
	CurrentVotes(ctx context.Context, conversationID, pid int64) ([]domain.Vote, error)
}

type schedulerService interface {
	NextStatement(ctx context.Context, in scheduler.NextInput) (*scheduler.NextResult, error)
}

type commentService interface {
	Submit(ctx context.Context, in comment.SubmitInput) (*domain.Statement, error)
}

type vectorService interface {
	VectorsFor(ctx context.Context, conversationID, tick int64, pids []int64) (map[int64]string, error)
	Invalidate(conversationID, pid int64)
}

type subscriptionService interface {
	Subscribe(ctx context.Context, conversationID, pid int64, email string) error
}

// Server is the HTTP front of the engine.
type Server struct {
	echo *echo.Echo
	log  *slog.Logger
	addr string

	identity      identityService
	voting        votingService
	scheduler     schedulerService
	comments      commentService
	vectors       vectorService
	subscriptions subscriptionService
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(
	logger *slog.Logger,
	cfg config.ServerConfig,
	identity identityService,
	votingSvc votingService,
	schedulerSvc schedulerService,
	comments commentService,
	vectors vectorService,
	subscriptions subscriptionService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestIDMiddleware())

	s := &Server{
		echo:          e,
		log:           logger.With("component", "httpapi"),
		addr:          fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		identity:      identity,
		voting:        votingSvc,
		scheduler:     schedulerSvc,
		comments:      comments,
		vectors:       vectors,
		subscriptions: subscriptions,
	}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := s.echo.Group("/api/v1")
	v1.POST("/participants", s.initParticipant)
	v1.POST("/votes", s.castVote)
	v1.GET("/votes", s.currentVotes)
	v1.GET("/next_statement", s.nextStatement)
	v1.POST("/statements", s.submitStatement)
	v1.POST("/subscriptions", s.subscribe)
	v1.GET("/vote_vectors", s.voteVectors)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("http server started", slog.String("addr", s.addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

// requestIDMiddleware tags every request with an id, propagated through
// the context and echoed back to the client.
func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			ctx := ctxutil.WithRequestID(c.Request().Context(), reqID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
