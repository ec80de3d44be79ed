package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskhub-dev/taskhub/internal/auth"
	"github.com/taskhub-dev/taskhub/internal/config"
	"github.com/taskhub-dev/taskhub/internal/domain/user"
	"github.com/taskhub-dev/taskhub/internal/http/handlers"
	"github.com/taskhub-dev/taskhub/internal/http/middlewares"
	"github.com/taskhub-dev/taskhub/internal/observability"
	"github.com/taskhub-dev/taskhub/internal/repo/postgres"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("taskhub"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	healthHandler := handlers.NewHealthHandler(ping)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Welcome to TaskHub API",
			"endpoints": gin.H{
				"health": "/health",
				"auth":   "/api/v1/auth",
				"tasks":  "/api/v1/tasks",
			},
		})
	})

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": fmt.Sprintf("Route %s not found", ctx.Request.URL.Path),
		})
	})

	// wire up repositories and handlers
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tasksRepo := postgres.NewTasksRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry())
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, prom)
	tasksHandler := handlers.NewTasksHandler(tasksRepo)

	MountRoutes(r, authMW, authHandler, tasksHandler)

	log.Info("router initialized", "env", cfg.Env, "origins", cfg.AllowedOrigins)

	return r
}

// MountRoutes attaches the API surface to an engine. Separate from
// NewRouter so tests can mount handlers over fake stores.
func MountRoutes(r *gin.Engine, authMW *middlewares.AuthMiddleware, authHandler *handlers.AuthHandler, tasksHandler *handlers.TasksHandler) {
	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)
		authGroup.GET("/users", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin), authHandler.ListUsers)
	}

	tasksGroup := v1.Group("/tasks")
	tasksGroup.Use(authMW.RequireAuth())
	{
		tasksGroup.POST("", tasksHandler.CreateTask)
		tasksGroup.GET("", tasksHandler.ListTasks)
		tasksGroup.GET("/stats/summary", tasksHandler.TaskStats)
		tasksGroup.GET("/:id", tasksHandler.GetTaskByID)
		tasksGroup.PUT("/:id", tasksHandler.UpdateTask)
		tasksGroup.DELETE("/:id", tasksHandler.DeleteTask)
	}
}
