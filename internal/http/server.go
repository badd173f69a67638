// Package http exposes the ledger and its reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gastos/internal/log"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/security"
	"gastos/internal/middleware/trace"
	"gastos/internal/services"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Config holds the listener and middleware settings.
type Config struct {
	Addr               string
	CORSOrigins        []string
	RateLimitPerMinute int
	JWTSecret          string
}

// Server wraps http.Server with the gin router and its background helpers.
type Server struct {
	http.Server

	ledger   *services.LedgerService
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	auth     *Authenticator
	checks   map[string]ReadinessCheck

	shutdownOnce sync.Once
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithReadinessCheck registers a named dependency probed by /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// WithLogger sets the logger used for request and error logs.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(cfg Config, ledger *services.LedgerService, opts ...Option) *Server {
	s := &Server{
		ledger:   ledger,
		logger:   log.FromContext(context.Background()),
		detector: security.NewDetector(),
		auth:     NewAuthenticator(cfg.JWTSecret),
		checks:   make(map[string]ReadinessCheck),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Handler())
	r.Use(s.detector.Handler(s.logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Handler())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	api := r.Group("/api/v1", s.auth.Middleware(s.logger))
	{
		api.GET("/categories", s.handleListCategories)
		api.POST("/categories", s.handleCreateCategory)
		api.PUT("/categories/:name", s.handleRenameCategory)
		api.DELETE("/categories/:name", s.handleDeleteCategory)
		api.GET("/categories/:name/usage", s.handleCategoryUsage)

		api.GET("/fixed-expenses", s.handleListFixedExpenses)
		api.POST("/fixed-expenses", s.handleCreateFixedExpense)
		api.GET("/fixed-expenses/totals", s.handleFixedTotals)
		api.GET("/fixed-expenses/:id", s.handleGetFixedExpense)
		api.PUT("/fixed-expenses/:id", s.handleUpdateFixedExpense)
		api.DELETE("/fixed-expenses/:id", s.handleDeleteFixedExpense)

		api.GET("/general-expenses", s.handleListGeneralExpenses)
		api.POST("/general-expenses", s.handleCreateGeneralExpense)
		api.PUT("/general-expenses/:id", s.handleUpdateGeneralExpense)
		api.DELETE("/general-expenses/:id", s.handleDeleteGeneralExpense)

		api.GET("/salaries", s.handleListSalaries)
		api.POST("/salaries", s.handleCreateSalary)
		api.PUT("/salaries/:id", s.handleUpdateSalary)
		api.DELETE("/salaries/:id", s.handleDeleteSalary)

		reports := api.Group("/reports")
		reports.GET("/health", s.handleHealthReport)
		reports.GET("/periods", s.handlePeriodsReport)
		reports.GET("/statistics", s.handleStatisticsReport)
		reports.GET("/categories", s.handleCategoriesReport)
		reports.GET("/months", s.handleMonthsReport)
		reports.GET("/categories.png", s.handleCategoriesChart)
		reports.GET("/months.png", s.handleMonthsChart)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", trace.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", trace.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	// credentials cannot be combined with a wildcard origin
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cc
}

func (s *Server) onRateLimited(c *gin.Context, clientIP string) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(c.Request.Context(), "Rate limit exceeded",
		log.NewFields().
			WithClientIP(clientIP).
			WithHTTPRequest(c.Request.Method, c.Request.URL.Path, "", c.Request.UserAgent()).
			ToSlice()...)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// Shutdown gracefully stops the listener and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
