package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/jdelaire/goalbot/core"
	"github.com/jdelaire/goalbot/core/auth"
	"github.com/jdelaire/goalbot/core/ratelimit"
	"github.com/jdelaire/goalbot/internal/store"
)

const (
	requestIDHeader = "X-Request-Id"
	readTimeout     = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Authenticator checks HTTP Basic credentials.
type Authenticator interface {
	Verify(ctx context.Context, username, password string) (*store.Account, error)
}

// Linker binds a chat to an account by verification code.
type Linker interface {
	Link(ctx context.Context, token string, accountID int64) (*store.ChatSession, error)
}

// Limiter tracks failed code submissions per account.
type Limiter interface {
	Check(accountID int64) error
	RecordFailure(accountID int64)
	Reset(accountID int64)
}

// Server exposes the chat linking endpoint.
type Server struct {
	addr    string
	auth    Authenticator
	linker  Linker
	limiter Limiter
	logger  *slog.Logger
	echo    *echo.Echo

	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup
}

// New creates the server and registers its routes.
func New(addr string, authn Authenticator, linker Linker, limiter Limiter, logger *slog.Logger) *Server {
	s := &Server{
		addr:    addr,
		auth:    authn,
		linker:  linker,
		limiter: limiter,
		logger:  logger,
		echo:    echo.New(),
	}
	s.echo.Use(s.requestID)
	s.echo.GET("/healthz", s.health)
	s.echo.PATCH("/api/bot/verify", s.verify)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: readTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("http listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http serve error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	return err
}

func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Response().Header().Set(requestIDHeader, id)
		c.Set("request_id", id)
		return next(c)
	}
}

func (s *Server) health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) verify(c *echo.Context) error {
	ctx := c.Request().Context()
	reqID, _ := c.Get("request_id").(string)

	username, password, ok := c.Request().BasicAuth()
	if !ok {
		c.Response().Header().Set("WWW-Authenticate", `Basic realm="goalbot"`)
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	account, err := s.auth.Verify(ctx, username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("verify: bad credentials", "request_id", reqID, "username", username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		s.logger.Error("verify: authenticate", "request_id", reqID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := s.limiter.Check(account.ID); err != nil {
		var locked *ratelimit.LockedError
		if errors.As(err, &locked) {
			return echo.NewHTTPError(http.StatusTooManyRequests, locked.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, core.MaxPayloadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read error")
	}
	req, err := core.ValidateVerifyRequest(data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := s.linker.Link(ctx, req.VerificationCode, account.ID)
	if errors.Is(err, core.ErrTokenNotFound) {
		s.limiter.RecordFailure(account.ID)
		s.logger.Warn("verify: unknown code", "request_id", reqID, "account_id", account.ID)
		return echo.NewHTTPError(http.StatusForbidden, "verification failed")
	}
	if err != nil {
		s.logger.Error("verify: link", "request_id", reqID, "account_id", account.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	s.limiter.Reset(account.ID)
	return c.JSON(http.StatusOK, core.VerifyResponse{
		ChatID:    session.ChatID,
		AccountID: account.ID,
	})
}
