// Package api exposes backtest runs, stored results, and optimized
// parameters over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/config"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/cache"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/database"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/optimizer"
)

// Backtester runs one full pipeline backtest for a symbol.
type Backtester interface {
	RunBacktest(ctx context.Context, symbol string) (*backtest.Result, error)
}

// RateLimiter provides simple in-memory rate limiting per client.
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server is the HTTP API server. repo, reports, and params may be nil;
// the affected endpoints then answer 503.
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	cfg         config.ServerConfig
	backtester  Backtester
	repo        *database.Repository
	reports     *cache.ReportCache
	params      *optimizer.ParamStore
	rateLimiter *RateLimiter
	logger      zerolog.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(
	cfg config.ServerConfig,
	backtester Backtester,
	repo *database.Repository,
	reports *cache.ReportCache,
	params *optimizer.ParamStore,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 60
	}
	window := time.Duration(cfg.RateWindowSec) * time.Second
	if window <= 0 {
		window = time.Minute
	}

	server := &Server{
		router:      router,
		cfg:         cfg,
		backtester:  backtester,
		repo:        repo,
		reports:     reports,
		params:      params,
		rateLimiter: NewRateLimiter(limit, window),
		logger:      logger.With().Str("component", "APIServer").Logger(),
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())
	{
		api.POST("/backtest", s.handleRunBacktest)
		api.GET("/backtest", s.handleListResults)
		api.GET("/backtest/:id", s.handleGetResult)
		api.GET("/backtest/:id/trades", s.handleGetTrades)
		api.GET("/params", s.handleGetParams)
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.rateLimiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// Start runs the server until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.router,
	}
	s.logger.Info().Int("port", s.cfg.Port).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
