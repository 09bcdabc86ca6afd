package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/joho/godotenv"
)

const (
	MediaBackendLocal = "local"
	MediaBackendMinIO = "minio"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string
	Port             string
	DatabasePath     string
	SessionSecret    string
	JWTSecret        string
	JWTTTL           time.Duration
	GinMode          string
	UploadDir        string
	UploadURLPath    string
	MediaBackend     string
	MinIO            media.MinIOConfig // 仅在 MEDIA_BACKEND=minio 时使用
	CORSOrigins      []string
	FailurePolicy    postform.FailurePolicy
	SeedUserName     string
	SeedUserPassword string
}

// Load 从环境变量（以及可选的 .env 文件）读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] failed to load .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv 使用给定的查找函数构造配置，便于测试。
func FromEnv(getenv func(string) string) AppConfig {
	get := func(key, fallback string) string {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
		return fallback
	}

	port := get("PORT", "8080")
	sessionSecret := get("SESSION_SECRET", "social-dev-secret")

	cfg := AppConfig{
		ListenAddr:    get("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:          port,
		DatabasePath:  get("DATABASE_PATH", "social.db"),
		SessionSecret: sessionSecret,
		JWTSecret:     get("JWT_SECRET", sessionSecret),
		JWTTTL:        parseDuration(getenv("JWT_TTL"), 24*time.Hour),
		GinMode:       get("GIN_MODE", "release"),
		UploadDir:     get("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath: get("UPLOAD_URL_PATH", "/static/uploads"),
		MediaBackend:  strings.ToLower(get("MEDIA_BACKEND", MediaBackendLocal)),
		MinIO: media.MinIOConfig{
			Endpoint:  get("MINIO_ENDPOINT", ""),
			AccessKey: get("MINIO_ACCESS_KEY", ""),
			SecretKey: get("MINIO_SECRET_KEY", ""),
			Bucket:    get("MINIO_BUCKET", "social-media"),
			UseSSL:    parseBool(getenv("MINIO_USE_SSL")),
			PublicURL: get("MINIO_PUBLIC_URL", ""),
		},
		CORSOrigins:      splitList(getenv("CORS_ORIGINS")),
		FailurePolicy:    postform.ParseFailurePolicy(getenv("FAILURE_POLICY")),
		SeedUserName:     get("SEED_USER_NAME", ""),
		SeedUserPassword: get("SEED_USER_PASSWORD", ""),
	}
	return cfg
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("[WARN] invalid duration %q, using %s", value, fallback)
		return fallback
	}
	return d
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
