// Package api serves reminders and groups over HTTP for the web client.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hray3182/cadence/internal/auth"
	"github.com/hray3182/cadence/internal/ics"
	"github.com/hray3182/cadence/internal/planner"
	"github.com/hray3182/cadence/internal/repository"
)

const shutdownTimeout = 5 * time.Second

// Server maps a single bearer token to one user.
type Server struct {
	planner *planner.Planner
	token   string
	userID  int64
	engine  *gin.Engine
}

func New(p *planner.Planner, token string, userID int64) *Server {
	s := &Server{
		planner: p,
		token:   token,
		userID:  userID,
		engine:  gin.Default(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	// Ping endpoint for health check
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	v1 := r.Group("/v1", s.authenticate)
	{
		v1.GET("/reminders", s.listReminders)
		v1.GET("/reminders/inbox", s.listInbox)
		v1.GET("/reminders/overdue", s.listOverdue)
		v1.GET("/reminders/search", s.searchReminders)
		v1.POST("/reminders", s.createReminder)
		v1.GET("/reminders/:id", s.getReminder)
		v1.PUT("/reminders/:id", s.updateReminder)
		v1.DELETE("/reminders/:id", s.deleteReminder)
		v1.PUT("/reminders/:id/status", s.setStatus)
		v1.POST("/reminders/:id/reschedule", s.reschedule)
		v1.POST("/reminders/reschedule-overdue", s.rescheduleOverdue)

		v1.GET("/groups", s.listGroups)
		v1.POST("/groups", s.createGroup)
		v1.PUT("/groups/:id", s.updateGroup)
		v1.DELETE("/groups/:id", s.deleteGroup)

		v1.GET("/insights", s.insights)
		v1.GET("/export.ics", s.export)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve HTTP API: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// authenticate accepts "Authorization: Bearer <token>" and puts the
// configured user in the request context.
func (s *Server) authenticate(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		respondError(c, auth.ErrNotAuthenticated)
		c.Abort()
		return
	}
	if s.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
		respondError(c, auth.ErrBadCredentials)
		c.Abort()
		return
	}

	ctx := auth.WithPrincipal(c.Request.Context(), &auth.Principal{UserID: s.userID})
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrBadCredentials):
		status, msg = http.StatusUnauthorized, "invalid token"
	case errors.Is(err, planner.ErrInvalid):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, planner.ErrAmbiguous):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ics.ErrEmpty):
		status, msg = http.StatusNotFound, err.Error()
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseTime accepts RFC 3339 timestamps and plain dates in the planner's
// location.
func (s *Server) parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, s.planner.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", v)
	}
	return t, nil
}

// today returns midnight of the current day in the planner's location.
func (s *Server) today() time.Time {
	now := s.planner.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
