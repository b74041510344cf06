package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/middleware"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
	"storefront/api/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	repos       repository.Manager
	cache       *redis.Client
	codec       *security.CookieCodec
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	repos repository.Manager,
	cache *redis.Client,
	authService *service.AuthService,
	codec *security.CookieCodec,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: authService,
		repos:       repos,
		cache:       cache,
		codec:       codec,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET(h.cfg.Gate.LoginPath, h.LoginPage)

	api := router.Group("/api")
	{
		api.GET("/healthz", h.Health)
		api.GET("/debug/status", h.DebugStatus)

		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
		auth.POST("/change-password", h.ChangePassword)
	}

	admin := router.Group(h.cfg.Gate.ProtectedPrefix)
	admin.Use(middleware.AdminSession(h.authService.Sessions(), h.codec, h.cfg, h.log))
	admin.GET("", h.AdminDashboard)
	admin.GET("/*page", h.AdminPage)
}

func (h HandlerSet) secureCookies() bool {
	return h.cfg.IsProduction()
}

func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
