package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mkryuchkov/socnet/config"
	"github.com/mkryuchkov/socnet/controllers"
	"github.com/mkryuchkov/socnet/middleware"
	"github.com/mkryuchkov/socnet/repositories"
	"github.com/mkryuchkov/socnet/services"
	"github.com/mkryuchkov/socnet/utils"
)

// SetupRouter wires repositories, services, controllers and middlewares.
// A nil Redis client yields a store-only reaction repository.
func SetupRouter(db *gorm.DB, rdb *redis.Client) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	actionRepo := repositories.NewActionRepository(db, repositories.NewActionCache(rdb))

	userService := services.NewUserService(userRepo)
	postService := services.NewPostService(userRepo, postRepo, actionRepo)

	authController := controllers.NewAuthController(userService)
	postController := controllers.NewPostController(postService)
	healthController := controllers.NewHealthController(db, rdb)

	r.GET("/health", healthController.Ping)
	r.GET("/health/database", healthController.PingDatabase)
	r.GET("/health/cache", healthController.PingCache)

	api := r.Group("/api/v1")

	userGroup := api.Group("/user")
	userGroup.Use(middleware.RateLimitMiddleware())
	userGroup.POST("/registration", authController.Register)
	userGroup.POST("/authentication", authController.Login)
	userGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	userGroup.PATCH("/me", middleware.AuthRequired(), authController.UpdateProfile)
	userGroup.DELETE("/me", middleware.AuthRequired(), authController.DeleteMe)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)

	postGroup := api.Group("/post")
	postGroup.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	postGroup.POST("", postController.CreatePost)
	postGroup.GET("/:id", postController.GetPost)
	postGroup.PUT("/:id", postController.UpdatePost)
	postGroup.DELETE("/:id", postController.DeletePost)
	postGroup.GET("/:id/actions", postController.ListReactions)
	postGroup.POST("/:id/:action", postController.RatePost)
	postGroup.DELETE("/:id/:action", postController.RemoveRate)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
