// Package server exposes the video generation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"quranvideo/internal/app"
	"quranvideo/internal/jobstore"
)

// Server is the HTTP front end over the application
type Server struct {
	echo   *echo.Echo
	app    *app.Application
	logger *zap.Logger
	addr   string
}

// NewServer creates the HTTP server and registers its routes
func NewServer(application *app.Application, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		app:    application,
		logger: logger,
		addr:   addr,
	}

	e.POST("/generate_video", s.handleGenerateVideo)
	e.GET("/jobs/:id/status", s.handleJobStatus)
	e.GET("/jobs", s.handleListJobs)
	e.GET("/health", s.handleHealth)

	return s
}

// Start begins serving; it blocks until the server stops
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.addr))
	err := s.echo.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler exposes the routing tree, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type generateResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleGenerateVideo accepts a generation request, queues a job, and
// returns its identifier
func (s *Server) handleGenerateVideo(c echo.Context) error {
	var req app.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	job, err := s.app.Submit(c.Request().Context(), req)
	if err != nil {
		s.logger.Debug("rejected generation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusAccepted, generateResponse{
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

// handleJobStatus returns the current state of one job
func (s *Server) handleJobStatus(c echo.Context) error {
	job, err := s.app.Store().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, jobstore.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "job not found"})
		}
		s.logger.Error("failed to load job", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, job)
}

// handleListJobs returns recent jobs, newest first
func (s *Server) handleListJobs(c echo.Context) error {
	jobs, err := s.app.Store().List(c.Request().Context(), 50)
	if err != nil {
		s.logger.Error("failed to list jobs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	if jobs == nil {
		jobs = []*jobstore.Job{}
	}
	return c.JSON(http.StatusOK, jobs)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
