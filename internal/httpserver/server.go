// Package httpserver exposes the event cache and its aggregations over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/sentrycli/internal/aggregate"
	"github.com/tinytelemetry/sentrycli/internal/breadcrumbs"
	"github.com/tinytelemetry/sentrycli/internal/event"
	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/timestamp"
)

// Server provides a read-only JSON API over cached events.
type Server struct {
	addr      string
	store     model.EventReader
	server    *http.Server
	listener  net.Listener
	serveErr  chan error
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store model.EventReader) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/issues", s.handleIssues)
	api.GET("/issues/:issue/options", s.handleOptions)
	api.POST("/issues/:issue/group", s.handleGroup)
	api.GET("/issues/:issue/ctime", s.handleCTime)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	s.serveErr = make(chan error, 1)
	go func() {
		err := s.server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()
	return nil
}

// Wait blocks until the serve loop exits. It returns nil after Stop and the
// serve error when the loop fails on its own.
func (s *Server) Wait() error {
	if s.serveErr == nil {
		return nil
	}
	return <-s.serveErr
}

// Addr is the bound listen address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	issues, err := s.store.Issues()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read cache"})
		return
	}
	var events int64
	for _, is := range issues {
		events += is.Events
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
		"issues": len(issues),
		"events": events,
	})
}

func (s *Server) handleIssues(c *gin.Context) {
	issues, err := s.store.Issues()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list issues"})
		return
	}
	if issues == nil {
		issues = []model.IssueSummary{}
	}
	c.JSON(http.StatusOK, issues)
}

func (s *Server) handleOptions(c *gin.Context) {
	views, ok := s.loadViews(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"options":     aggregate.CollectOptions(views),
		"breadcrumbs": breadcrumbs.CategoryAttributes(views),
	})
}

func (s *Server) handleGroup(c *gin.Context) {
	var sel aggregate.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	plan, err := aggregate.BuildPlan(sel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.runPlan(c, plan)
}

func (s *Server) handleCTime(c *gin.Context) {
	plan, err := aggregate.BuildPlan(aggregate.Selection{CTime: c.DefaultQuery("mode", string(model.Daily))})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.runPlan(c, plan)
}

func (s *Server) runPlan(c *gin.Context, plan aggregate.Plan) {
	views, ok := s.loadViews(c)
	if !ok {
		return
	}
	rep, err := plan.Run(views)
	if err != nil {
		if model.IsUserError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// loadViews resolves the :issue and optional since/to query parameters.
// It writes the error response itself and reports whether to continue.
func (s *Server) loadViews(c *gin.Context) ([]*event.View, bool) {
	issue := c.Param("issue")
	window, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	known, err := s.store.HasIssue(issue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read cache"})
		return nil, false
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "issue " + issue + " is not cached"})
		return nil, false
	}

	raw, err := s.store.LoadEvents(issue, window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return nil, false
	}
	views, err := event.NewViews(raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return views, true
}

var errBadWindow = errors.New("since must not be after to")

func parseWindow(c *gin.Context) (model.Window, error) {
	var w model.Window
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"since", &w.Since},
		{"to", &w.To},
	} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		t, err := timestamp.Parse(v, time.UTC)
		if err != nil {
			return model.Window{}, model.UserErrorf("invalid %s: %v", p.name, err)
		}
		*p.dst = t
	}
	if !w.Since.IsZero() && !w.To.IsZero() && w.Since.After(w.To) {
		return model.Window{}, model.AsUserError(errBadWindow)
	}
	return w, nil
}
