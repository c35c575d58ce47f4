// Package ops serves the operational HTTP endpoints: liveness and a
// small runtime status snapshot.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"laundrybot/internal/buildinfo"
	"laundrybot/internal/logger"
	"laundrybot/internal/session"
	"laundrybot/internal/telegram/sender"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Options wires the server's collaborators.
type Options struct {
	Listen          string
	RateLimitPerSec float64

	Sessions   session.Store
	Dispatcher *sender.Dispatcher
}

// Server exposes /healthz and /status over a gin engine.
type Server struct {
	opts    Options
	engine  *gin.Engine
	started time.Time
}

// NewServer builds the ops server. Callers should skip construction when
// no listen address is configured.
func NewServer(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		opts:    opts,
		engine:  engine,
		started: time.Now(),
	}

	limit := opts.RateLimitPerSec
	if limit <= 0 {
		limit = 10
	}
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	engine.Use(func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	})

	engine.GET("/healthz", s.healthz)
	engine.GET("/status", s.status)
	return s
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	body := gin.H{
		"version":        buildinfo.Version,
		"commit":         buildinfo.Commit,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	}
	if s.opts.Sessions != nil {
		body["sessions"] = s.opts.Sessions.Count()
	}
	if s.opts.Dispatcher != nil {
		body["send_errors"] = s.opts.Dispatcher.ErrorCount()
	}
	c.JSON(http.StatusOK, body)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info(ctx, "ops", "listen", slog.String("listen", s.opts.Listen))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
