package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"careerpilot/internal/ai"
	"careerpilot/internal/api/middleware"
	"careerpilot/internal/ats"
	"careerpilot/internal/auth"
	"careerpilot/internal/cache"
	"careerpilot/internal/config"
	"careerpilot/internal/ratelimit"
	"careerpilot/internal/storage"
)

// Deps 汇总路由注册所需的依赖。
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	AsynqClient *asynq.Client
	AuthService *auth.AuthService
	Storage     *storage.Client
	Cache       *cache.Store
	Limiter     *ratelimit.Limiter
	AIService   *ai.Service
	Logger      *slog.Logger
	Config      *config.Config
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config

	loginClass := ratelimit.Class{
		Name:   "login",
		Max:    cfg.RateLimit.LoginMax,
		Window: cfg.RateLimit.LoginWindow,
	}
	generateClass := ratelimit.Class{
		Name:   "generate",
		Max:    cfg.RateLimit.GenerateMax,
		Window: cfg.RateLimit.GenerateWindow,
	}
	scoreClass := ratelimit.Class{
		Name:   "score",
		Max:    cfg.RateLimit.ScoreMax,
		Window: cfg.RateLimit.ScoreWindow,
	}

	authHandler := NewAuthHandler(
		deps.DB,
		deps.AuthService,
		deps.Redis,
		deps.Limiter,
		loginClass,
		deps.Logger,
		cfg.RateLimit.LockThreshold,
		cfg.RateLimit.LockTTL,
		cfg.API.CookieDomain,
	)
	documentHandler := NewDocumentHandler(deps.DB, deps.Storage, deps.AsynqClient, deps.Logger, cfg.Upload.ClamdAddr, cfg.Upload.MaxSizeBytes)
	resumeHandler := NewResumeHandler(deps.DB, deps.Logger, 50)
	atsHandler := NewATSHandler(deps.DB, ats.NewScorer(), deps.Cache, deps.Logger)
	generateHandler := NewGenerateHandler(deps.DB, deps.AIService, deps.Cache, deps.Logger)
	agreementHandler := NewAgreementHandler(deps.DB, deps.Logger)
	wsHandler := NewWsHandler(deps.Redis, deps.AuthService, deps.Logger, nil)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	generateLimit := middleware.RateLimitMiddleware(deps.Limiter, generateClass)
	scoreLimit := middleware.RateLimitMiddleware(deps.Limiter, scoreClass)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		documentGroup := v1.Group("/documents")
		documentGroup.Use(authMiddleware)
		{
			documentGroup.POST("", documentHandler.Upload)
			documentGroup.GET("", documentHandler.List)
			documentGroup.GET("/:id", documentHandler.Get)
			documentGroup.GET("/:id/download", documentHandler.Download)
			documentGroup.DELETE("/:id", documentHandler.Delete)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.POST("/:id/score", scoreLimit, atsHandler.ScoreStored)
		}

		v1.POST("/ats/score", authMiddleware, scoreLimit, atsHandler.Score)

		generateGroup := v1.Group("/generate")
		generateGroup.Use(authMiddleware, generateLimit)
		{
			generateGroup.POST("/resume", generateHandler.GenerateResume)
			generateGroup.POST("/enhance", generateHandler.EnhanceResume)
			generateGroup.POST("/cover-letter", generateHandler.GenerateCoverLetter)
		}
		v1.GET("/cover-letters", authMiddleware, generateHandler.ListCoverLetters)

		agreementGroup := v1.Group("/agreements")
		agreementGroup.Use(authMiddleware)
		{
			agreementGroup.POST("", agreementHandler.Accept)
			agreementGroup.GET("", agreementHandler.List)
		}
	}
}
