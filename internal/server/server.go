// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the web front end: it lists stored records, shows
// their completeness report, renders charts on demand and accepts filing
// uploads that run through the pipeline.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pdiddy/edinet-facts/internal/audit"
	"github.com/pdiddy/edinet-facts/internal/chart"
	"github.com/pdiddy/edinet-facts/internal/index"
	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/internal/pipeline"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators the handlers need.
type Deps struct {
	Config   types.Config
	Registry *registry.Registry
	Store    index.Store
	Pipeline *pipeline.Processor
	Charts   *chart.Renderer
	Log      *logger.Logger
}

// Server owns the gin engine and the chart cache.
type Server struct {
	engine  *gin.Engine
	cfg     types.Config
	auditor *audit.Auditor
	store   index.Store
	proc    *pipeline.Processor
	charts  *chart.Renderer
	cache   *ChartCache
	log     *logger.Logger

	// runMu serializes pipeline runs and index saves.
	runMu sync.Mutex
}

// New builds the router.
func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		cfg:     d.Config,
		auditor: audit.NewAuditor(d.Registry),
		store:   d.Store,
		proc:    d.Pipeline,
		charts:  d.Charts,
		cache:   NewChartCache(d.Config.Server.ChartTTL),
		log:     log.With("component", "server"),
	}
	s.engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthcheck", s.healthCheck)

	api := r.Group("/api")
	{
		api.GET("/records", s.listRecords)
		api.GET("/records/:file", s.getRecord)
		api.POST("/records/:file/chart", s.createChart)

		api.GET("/charts/:id", s.getChart)
		api.DELETE("/charts/:id", s.deleteChart)

		api.POST("/filings", s.uploadFiling)

		api.GET("/companies/:code", s.getCompany)
	}
	return r
}

// corsConfig allows the configured origins, or any origin without
// credentials when none are configured.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
	}
	if len(s.cfg.Server.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.cfg.Server.AllowOrigins
	cfg.AllowCredentials = true
	return cfg
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
