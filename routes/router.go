package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/evsign/config"
	"github.com/cppla/evsign/controllers"
	"github.com/cppla/evsign/middleware"
	"github.com/cppla/evsign/repository"
	"github.com/cppla/evsign/scheduler"
	"github.com/cppla/evsign/utils"
)

// Deps are the collaborators the router wires into controllers.
type Deps struct {
	Repo      *repository.TokenRepository
	Client    controllers.SignInClient
	Window    scheduler.Window
	Blacklist *utils.Blacklist
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// request log goes to its own rolling file; stdout logger is the fallback
	requestLogger := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err == nil {
			requestLogger = gl
		}
	}
	r.Use(utils.Ginzap(requestLogger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(requestLogger, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	secret := []byte(cfg.JWTSecret)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	triggerLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	authController := controllers.NewAuthController(
		controllers.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		secret, cfg.SessionTTL(), deps.Blacklist,
	)
	tokenController := controllers.NewTokenController(deps.Repo, deps.Client, deps.Window)
	statsController := controllers.NewStatsController(deps.Repo)

	api := r.Group("/api")
	api.POST("/login", loginLimiter.Middleware(), authController.Login)

	protected := api.Group("")
	if cfg.AuthEnabled() {
		protected.Use(middleware.AuthRequired(secret, deps.Blacklist))
		protected.POST("/logout", authController.Logout)
	}

	protected.GET("/tokens", tokenController.ListTokens)
	protected.POST("/tokens", tokenController.CreateToken)
	protected.GET("/tokens/:id", tokenController.GetToken)
	protected.PUT("/tokens/:id", tokenController.UpdateToken)
	protected.DELETE("/tokens/:id", tokenController.DeleteToken)
	protected.POST("/tokens/:id/signin", triggerLimiter.Middleware(), tokenController.TriggerSignIn)
	protected.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
