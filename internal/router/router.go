package router

import (
	"net/http"
	"time"

	"github.com/Stephan-mit-Ph/Social-App/internal/handler"
	"github.com/Stephan-mit-Ph/Social-App/internal/view"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "social_session"

// Options 路由层需要的配置。UploadDir 为空时不挂载本地静态目录（例如使用对象存储）。
type Options struct {
	SessionSecret string
	UploadDir     string
	UploadURLPath string
	CORSOrigins   []string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 7 * 24 * 3600})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(handler.LoadSessionUser())

	r.SetHTMLTemplate(view.MustTemplates())

	// 静态文件服务
	if opts.UploadDir != "" {
		urlPath := opts.UploadURLPath
		if urlPath == "" {
			urlPath = "/static/uploads"
		}
		r.Static(urlPath, opts.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.GET("/", api.ShowFeed)
	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.GET("/logout", api.Logout)

	// 需要登录的表单页面
	posts := r.Group("/posts")
	posts.Use(handler.AuthRequired())
	{
		posts.GET("/new", api.ShowPostNew)
		posts.GET("/:id/edit", api.ShowPostEdit)
		posts.POST("", api.SubmitPostForm)
		posts.POST("/cancel", api.CancelPostForm)
		posts.POST("/:id", api.SubmitPostEditForm)
	}

	// API路由
	apiGroup := r.Group("/api")
	apiGroup.Use(cors.New(corsConfig(opts.CORSOrigins)))
	{
		apiGroup.POST("/auth/token", api.IssueToken)
		apiGroup.GET("/posts", api.ListPosts)
		apiGroup.GET("/posts/:id", api.GetPost)

		authed := apiGroup.Group("")
		authed.Use(api.APIAuthRequired())
		{
			authed.POST("/posts", api.CreatePost)
			authed.PUT("/posts/:id", api.UpdatePost)
			authed.DELETE("/posts/:id", api.DeletePost)
			authed.POST("/uploads", api.UploadImage)
		}
	}

	return r
}

// corsConfig 未配置来源时允许任意来源，但不携带凭据。
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
