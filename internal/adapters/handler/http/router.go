package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/habitup/habitup-engine/internal/adapters/handler/http/middleware"
	"github.com/habitup/habitup-engine/internal/core/domain"
	"github.com/habitup/habitup-engine/internal/core/flow"
	"github.com/habitup/habitup-engine/internal/core/services"
)

type RouterDependencies struct {
	AuthHandler  *AuthHandler
	FlowHandler  *FlowHandler
	TaskHandler  *TaskHandler
	TokenService *services.TokenService
	Registry     *flow.Registry
	ProfileRepo  domain.ProfileRepository
	DB           *sqlx.DB
	Redis        *redis.Client
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Session-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, 100, 1*time.Minute))
	}

	router.GET("/health", func(c *gin.Context) {
		dbStatus := "connected"
		if deps.DB == nil {
			dbStatus = "in-memory"
		} else if err := deps.DB.Ping(); err != nil {
			dbStatus = "unreachable"
		}

		redisStatus := "connected"
		if deps.Redis == nil || deps.Redis.Ping(c.Request.Context()).Err() != nil {
			redisStatus = "unreachable"
		}

		statusCode := 200
		if dbStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status":   "ok",
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")

	deps.FlowHandler.RegisterSessionRoute(apiV1)

	session := apiV1.Group("")
	session.Use(middleware.SessionMiddleware(deps.Registry))
	{
		deps.AuthHandler.RegisterRoutes(session)
		deps.FlowHandler.RegisterRoutes(session)
		deps.TaskHandler.RegisterRoutes(session)

		restore := session.Group("")
		restore.Use(middleware.AuthMiddleware(deps.TokenService))
		deps.AuthHandler.RegisterRestoreRoute(restore, deps.ProfileRepo)
	}

	return router
}
