// Package api exposes the preview pipeline over HTTP (serve mode).
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/linkpeek/api/handler"
	"github.com/use-agent/linkpeek/api/middleware"
	"github.com/use-agent/linkpeek/config"
	"github.com/use-agent/linkpeek/scrape"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics are intentionally outside auth so probes always work.
func NewRouter(sc handler.Scraper, session handler.SessionInfo, metrics *scrape.Metrics, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(session, startTime))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/preview", handler.Preview(sc))
	protected.POST("/previews", handler.Previews(sc))

	return r
}
