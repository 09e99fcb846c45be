package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/primecode/internal/auth"
	"github.com/yukikurage/primecode/internal/config"
	"github.com/yukikurage/primecode/internal/constants"
	apierrors "github.com/yukikurage/primecode/internal/errors"
	"github.com/yukikurage/primecode/internal/handlers"
	"github.com/yukikurage/primecode/internal/middleware"
	"github.com/yukikurage/primecode/internal/repository"
	"github.com/yukikurage/primecode/internal/services"
	"github.com/yukikurage/primecode/internal/validation"
	"gorm.io/gorm"
)

// Browser origins the bundled web client is served from.
var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:4173",
}

// Deps are the shared resources the HTTP layer is built from.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    logrus.FieldLogger

	// Redis backs auth rate limiting; nil disables it.
	Redis *redis.Client

	// Tokens overrides the token service derived from Config.
	Tokens *auth.TokenService
}

// New wires repositories, services and handlers into a gin engine.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	validation.Init()

	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	}

	userRepo := repository.NewUserRepository(deps.DB)
	taskRepo := repository.NewTaskRepository(deps.DB)

	authService := services.NewAuthService(userRepo, tokens)
	taskService := services.NewTaskService(taskRepo)

	authHandler := handlers.NewAuthHandler(authService, deps.Log)
	taskHandler := handlers.NewTaskHandler(taskService, deps.Log)

	bodyLimit := cfg.BodyLimitBytes
	if bodyLimit <= 0 {
		bodyLimit = constants.DefaultBodyLimit
	}

	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(middleware.BodyLimit(bodyLimit))
	r.NoRoute(apierrors.RouteNotFound)

	requireAuth := middleware.RequireAuth(tokens, authService, deps.Log)
	rateLimit := middleware.RateLimit(deps.Redis, cfg.AuthRateLimit, cfg.AuthRateWindow, middleware.KeyByIPAndPath(), deps.Log)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ok",
				"timestamp": time.Now().UTC(),
			})
		})

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		authRoutes.Use(rateLimit)
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		// Profile routes (protected)
		profile := api.Group("/profile")
		profile.Use(requireAuth)
		{
			profile.GET("", authHandler.GetProfile)
			profile.PUT("", authHandler.UpdateProfile)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskID(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskID(), taskHandler.DeleteTask)
		}
	}

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", constants.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", constants.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if !cfg.IsProduction() {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = append(append([]string{}, defaultOrigins...), cfg.ClientOrigins...)
	return c
}
