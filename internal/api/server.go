package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credihub/fgts-api/internal/api/handlers"
	"github.com/credihub/fgts-api/internal/api/middleware"
	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *logrus.Logger
	services *services.Container
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	if s.config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s.Router = gin.New()

	// Global middleware
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	// Health endpoints (no rate limiting)
	healthHandler := handlers.NewHealthHandler(s.services.Store, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	rateLimiter := middleware.NewRateLimiter(s.config.Security.RateLimit)

	v1 := s.Router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		simulationHandler := handlers.NewSimulationHandler(s.services.Simulation, s.logger)
		simulations := v1.Group("/simulations")
		{
			simulations.POST("", simulationHandler.Simulate)
			simulations.GET("", simulationHandler.List)
			simulations.GET("/history", simulationHandler.History)
			simulations.GET("/cpfs", simulationHandler.UniqueCPFs)
		}
		v1.GET("/banks", simulationHandler.Banks)

		proposalHandler := handlers.NewProposalHandler(s.services.Proposal, s.logger)
		proposals := v1.Group("/proposals")
		{
			proposals.POST("", proposalHandler.Submit)
			proposals.GET("", proposalHandler.List)
			proposals.GET("/history", proposalHandler.History)
			proposals.GET("/providers", proposalHandler.Providers)
			proposals.GET("/status/:contract_number", proposalHandler.Status)
			proposals.POST("/link/:contract_number", proposalHandler.ResendLink)
		}

		batchHandler := handlers.NewBatchHandler(s.services.Batch, s.logger)
		batch := v1.Group("/batch")
		{
			batch.POST("/simulations", batchHandler.Run)
			batch.GET("/results", batchHandler.Results)
		}

		configHandler := handlers.NewConfigHandler(s.services.BankConfig, s.services.TableConfig, s.logger)
		cfg := v1.Group("/config")
		{
			cfg.GET("/banks", configHandler.GetBanks)
			cfg.POST("/banks", configHandler.AddBank)
			cfg.PUT("/banks/:bank_name", configHandler.UpdateBank)
			cfg.GET("/tables", configHandler.GetTables)
			cfg.POST("/tables", configHandler.AddTable)
			cfg.PUT("/tables/:table_id/activate", configHandler.ActivateTable)
		}
	}

	// 404 handler
	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	// 405 handler
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}
