package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/civiceye/civiceye-api/internal/handler"
	"github.com/civiceye/civiceye-api/internal/middleware"
	"github.com/civiceye/civiceye-api/internal/models"
	"github.com/civiceye/civiceye-api/internal/service"
	"github.com/civiceye/civiceye-api/pkg/config"
	"github.com/civiceye/civiceye-api/pkg/logger"
	corsmiddleware "github.com/civiceye/civiceye-api/pkg/middleware/cors"
	reqidmiddleware "github.com/civiceye/civiceye-api/pkg/middleware/requestid"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth          *handler.AuthHandler
	Announcements *handler.AnnouncementHandler
	Issues        *handler.IssueHandler
}

// New assembles the gin engine with middleware and all routes.
func New(cfg *config.Config, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	authRequired := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	announcements := api.Group("/announcements")
	{
		announcements.GET("", h.Announcements.List)
		announcements.GET("/stats/summary", authRequired, adminOnly, h.Announcements.Stats)
		announcements.GET("/export", authRequired, adminOnly, h.Announcements.Export)
		announcements.GET("/:id", h.Announcements.Get)
		announcements.POST("", authRequired, adminOnly, h.Announcements.Create)
		announcements.PUT("/:id", authRequired, adminOnly, h.Announcements.Update)
		announcements.DELETE("/:id", authRequired, adminOnly, h.Announcements.Delete)
	}

	issues := api.Group("/issues")
	{
		issues.GET("", h.Issues.List)
		issues.GET("/:id", h.Issues.Get)
		issues.POST("", authRequired, middleware.RequireRoles(models.RoleCitizen, models.RoleAdmin), h.Issues.Create)
		issues.POST("/:id/hype", authRequired, middleware.RequireRoles(models.RoleCitizen), h.Issues.Hype)
		issues.PATCH("/:id/status", authRequired, adminOnly, h.Issues.UpdateStatus)
	}

	return r
}
