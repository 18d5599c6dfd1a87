package routes

import (
	"html/template"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cspring/microblog/config"
	"github.com/cspring/microblog/controllers"
	"github.com/cspring/microblog/middleware"
	"github.com/cspring/microblog/services"
	"github.com/cspring/microblog/store"
	"github.com/cspring/microblog/utils"
)

// SetupRouter wires routes, middlewares, services, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
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
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
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

	r.SetFuncMap(template.FuncMap{
		"formatTimestamp": func(t time.Time) string {
			return t.Format("01/02/2006, 03:04:05 PM")
		},
		"dict": func(pairs ...any) map[string]any {
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				if k, ok := pairs[i].(string); ok {
					m[k] = pairs[i+1]
				}
			}
			return m
		},
	})
	r.LoadHTMLGlob(cfg.ViewsGlob)
	r.Static("/static", "./static")

	st := store.NewGormStore(db)
	identity := services.NewIdentityService(st)
	posts := services.NewPostService(st)

	authController := controllers.NewAuthController(identity)
	postController := controllers.NewPostController(posts)
	avatarController := controllers.NewAvatarController(identity)
	statsController := controllers.NewStatsController(db)

	r.Use(middleware.SessionLoader(identity))
	r.Use(middleware.PageViewRecorder(db))

	r.GET("/", postController.Home)
	r.GET("/sortPosts", postController.SortPosts)
	r.GET("/post/:id", postController.PostPage)
	r.POST("/posts", postController.CreatePost)
	r.POST("/like/:id", postController.ToggleLike)
	r.POST("/post/:id/comments", postController.AddComment)

	r.GET("/login", authController.LoginPage)
	r.GET("/register", authController.RegisterPage)
	r.GET("/registerUsername", authController.RegisterUsernamePage)
	r.POST("/login", authController.Login)
	r.POST("/register", authController.Register)
	r.POST("/registerUsername", authController.Register)
	r.GET("/logout", authController.Logout)
	r.GET("/error", authController.ErrorPage)

	r.GET("/auth/external", authController.ExternalLogin)
	r.GET("/auth/external/callback", authController.ExternalCallback)

	r.GET("/avatar/:username", avatarController.GetAvatar)
	r.GET("/stats", statsController.GetStats)

	authed := r.Group("")
	authed.Use(middleware.AuthRequired())
	authed.GET("/profile", postController.Profile)
	authed.POST("/delete/:id", postController.DeletePost)

	return r
}
