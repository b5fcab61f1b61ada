package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tafahom/internal/config"
	"tafahom/internal/logging"
	"tafahom/internal/observability"
	"tafahom/internal/ports"
	"tafahom/internal/prompts"
	"tafahom/internal/store"
	"tafahom/internal/webui/handlers"
	"tafahom/internal/webui/middleware"
)

// Server hosts both workflows behind one HTTP API: the artist portal and the
// financial agent. State is per-process; profiles on disk are the only thing
// shared between deployments.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
	startTime  time.Time
}

// NewServer wires the API around a completion client, prompt loader and the
// file-backed stores.
func NewServer(cfg config.ServerConfig, client ports.LLMClient, loader *prompts.Loader,
	profiles store.ProfileStore, transcripts store.TranscriptStore) *Server {

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		engine:    engine,
		logger:    logging.NewComponentLogger("Server"),
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // completion calls are slow
	}

	s.setupRoutes(client, loader, profiles, transcripts)
	return s
}

func (s *Server) setupRoutes(client ports.LLMClient, loader *prompts.Loader,
	profiles store.ProfileStore, transcripts store.TranscriptStore) {

	portalHandler := handlers.NewPortalHandler(client, loader, profiles, transcripts)
	agentHandler := handlers.NewAgentHandler(client, loader, profiles)

	api := s.engine.Group("/api")
	api.Use(middleware.JSONMiddleware())

	api.GET("/health", s.handleHealth)

	portal := api.Group("/portal")
	{
		portal.POST("/sessions", portalHandler.CreateSession)
		portal.GET("/sessions/:id", portalHandler.GetSession)
		portal.POST("/sessions/:id/messages", portalHandler.SendMessage)
		portal.POST("/sessions/:id/profile", portalHandler.GenerateProfile)
		portal.GET("/sessions/:id/profile/export", portalHandler.ExportProfile)
	}

	agent := api.Group("/agent")
	{
		agent.GET("/profiles", agentHandler.ListProfiles)
		agent.GET("/profiles/:id", agentHandler.GetProfile)
		agent.POST("/profiles/:id/questions", agentHandler.Questions)
		agent.POST("/profiles/:id/evaluation", agentHandler.Evaluation)
		agent.POST("/profiles/:id/enriched", agentHandler.Enriched)
	}

	s.engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, handlers.APIResponse{
		Success: true,
		Data: gin.H{
			"status": "ok",
			"uptime": time.Since(s.startTime).String(),
		},
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}
