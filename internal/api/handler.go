package api

import (
	"net/http"
	"time"

	"signalbot/internal/evaluator"
	"signalbot/internal/events"
	"signalbot/internal/market"
	"signalbot/internal/monitor"
	"signalbot/internal/settle"
	"signalbot/internal/signal"
	"signalbot/pkg/db"

	"github.com/gin-gonic/gin"
)

// Server wires the HTTP surface around the domain components.
type Server struct {
	Router   *gin.Engine
	Bus      *events.Bus
	Store    *db.Store
	Registry *evaluator.Registry
	Synth    *signal.Synthesizer
	Settler  *settle.Engine
	Market   market.PriceSource
	Metrics  *monitor.Metrics

	JWTSecret      string
	Variant        string // evaluator variant used for generation
	HistoryDays    int
	DefaultBalance float64
}

// Options carries the construction parameters for NewServer.
type Options struct {
	Bus            *events.Bus
	Store          *db.Store
	Registry       *evaluator.Registry
	Synthesizer    *signal.Synthesizer
	Settler        *settle.Engine
	Market         market.PriceSource
	Metrics        *monitor.Metrics
	JWTSecret      string
	Variant        string
	HistoryDays    int
	DefaultBalance float64
}

// NewServer builds the router with the full middleware stack.
func NewServer(opts Options) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())                      // Panic recovery (first)
	r.Use(RequestIDMiddleware())               // Request ID tracking
	r.Use(RequestLogger(opts.Metrics))         // Request logging (after ID is set)
	r.Use(RateLimitMiddleware())               // Rate limiting
	r.Use(TimeoutMiddleware(30 * time.Second)) // Request timeout (30s)
	r.Use(CORSMiddleware())                    // CORS (last before routes)

	s := &Server{
		Router:         r,
		Bus:            opts.Bus,
		Store:          opts.Store,
		Registry:       opts.Registry,
		Synth:          opts.Synthesizer,
		Settler:        opts.Settler,
		Market:         opts.Market,
		Metrics:        opts.Metrics,
		JWTSecret:      opts.JWTSecret,
		Variant:        opts.Variant,
		HistoryDays:    opts.HistoryDays,
		DefaultBalance: opts.DefaultBalance,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/metrics", s.getMetrics)

		// Auth endpoints (no auth required)
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.POST("/login", s.loginUser)
		}

		// Protected API
		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.GET("/user", s.getUser)

			protected.GET("/signals", s.listSignals)
			protected.POST("/signals", s.createSignal)
			protected.PATCH("/signals/:id", s.updateSignal)
			protected.POST("/signals/generate", s.generateSignal)
			protected.POST("/signals/:id/settle", s.settleSignal)

			protected.GET("/strategies", s.listStrategies)
			protected.POST("/strategies", s.createStrategy)
			protected.PATCH("/strategies/:id", s.updateStrategy)
			protected.POST("/strategies/:id/backtest", s.backtestStrategy)

			protected.POST("/backtest/replay", s.replayBacktest)

			protected.GET("/settings", s.getSettings)
			protected.PATCH("/settings", s.updateSettings)

			protected.GET("/balance-history", s.getBalanceHistory)
			protected.POST("/account/reset", s.resetAccount)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Metrics.Snapshot())
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
