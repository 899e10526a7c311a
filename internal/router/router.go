package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/handler"
	"github.com/psymetric/psymetric-backend/internal/middleware"
	"github.com/psymetric/psymetric-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog  *handler.CatalogHandler
	Template *handler.TemplateHandler
	Session  *handler.SessionHandler
	Result   *handler.ResultHandler
	Team     *handler.TeamHandler
	Audit    *handler.AuditHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the anonymous candidate surface (60 requests per
	// minute per IP).
	sessionLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Candidate Group (Public, Rate Limited) ─────────────────────
	// Candidates run sessions anonymously; knowing the session id is the
	// capability.
	sessionAPI := router.Group("/api/v1/sessions")
	sessionAPI.Use(sessionLimiter.Middleware())
	{
		sessionAPI.POST("", handlers.Session.StartSession)
		sessionAPI.GET("/:id/state", handlers.Session.GetState)
		sessionAPI.POST("/:id/answers", handlers.Session.SubmitAnswer)
		sessionAPI.POST("/:id/navigate", handlers.Session.Navigate)
		sessionAPI.POST("/:id/complete", handlers.Session.CompleteSession)
		sessionAPI.POST("/:id/abandon", handlers.Session.AbandonSession)
		sessionAPI.GET("/:id/result", handlers.Result.GetSessionResult)
	}

	// ─── 2. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(cfg.JWTSecret))
	{
		// Taxonomy authoring
		adminAPI.GET("/competencies", handlers.Catalog.ListCompetencies)
		adminAPI.POST("/competencies", handlers.Catalog.CreateCompetency)
		adminAPI.GET("/competencies/:id/indicators", handlers.Catalog.ListIndicators)
		adminAPI.POST("/competencies/:id/indicators", handlers.Catalog.CreateIndicator)
		adminAPI.GET("/indicators/:id/questions", handlers.Catalog.ListQuestions)
		adminAPI.POST("/indicators/:id/questions", handlers.Catalog.CreateQuestion)

		// Template lifecycle
		adminAPI.GET("/templates", handlers.Template.ListTemplates)
		adminAPI.POST("/templates", handlers.Template.CreateTemplate)
		adminAPI.GET("/templates/:id", handlers.Template.GetTemplate)
		adminAPI.PUT("/templates/:id", handlers.Template.UpdateTemplate)
		adminAPI.POST("/templates/:id/publish", handlers.Template.PublishTemplate)
		adminAPI.POST("/templates/:id/archive", handlers.Template.ArchiveTemplate)
		adminAPI.POST("/templates/:id/versions", handlers.Template.NewVersion)
		adminAPI.GET("/templates/:id/simulate", handlers.Template.SimulateTemplate)

		// Results
		adminAPI.GET("/results/:id", handlers.Result.GetResult)

		// Team profiles
		adminAPI.GET("/teams/:id", handlers.Team.GetTeam)
		adminAPI.PUT("/teams/:id", handlers.Team.UpsertTeam)

		// Psychometric audit
		adminAPI.POST("/audit/run", handlers.Audit.RunAudit)
		adminAPI.POST("/audit/items/:id", handlers.Audit.RecomputeItem)
		adminAPI.GET("/audit/competencies/:id/reliability", handlers.Audit.GetReliability)
	}

	return router
}
