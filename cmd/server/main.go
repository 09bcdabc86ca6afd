package main

import (
	"context"
	"log"
	"time"

	"github.com/Stephan-mit-Ph/Social-App/internal/config"
	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/Stephan-mit-Ph/Social-App/internal/handler"
	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/Stephan-mit-Ph/Social-App/internal/router"
	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(db.DB, cfg.SeedUserName, cfg.SeedUserPassword); err != nil {
		log.Fatalf("failed to ensure seed user: %v", err)
	}

	store, uploadDir, err := newMediaStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize media store: %v", err)
	}

	api := handler.NewAPI(db.DB, handler.Options{
		Store:         store,
		Tokens:        service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL),
		FailurePolicy: cfg.FailurePolicy,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		UploadDir:     uploadDir,
		UploadURLPath: cfg.UploadURLPath,
		CORSOrigins:   cfg.CORSOrigins,
	})

	log.Printf("[INFO] listening on %s (media=%s, failure policy=%s)", cfg.ListenAddr, cfg.MediaBackend, cfg.FailurePolicy)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// newMediaStore 根据配置选择媒体后端；本地存储时同时返回需要挂载的静态目录。
func newMediaStore(cfg config.AppConfig) (media.Store, string, error) {
	if cfg.MediaBackend == config.MediaBackendMinIO {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := media.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}

	if cfg.MediaBackend != config.MediaBackendLocal {
		log.Printf("[WARN] unknown MEDIA_BACKEND %q, using local storage", cfg.MediaBackend)
	}
	return media.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath), cfg.UploadDir, nil
}
