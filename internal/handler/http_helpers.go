package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parsePositiveQuery(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// safeReturnPath 只接受站内相对路径，避免开放重定向。
func safeReturnPath(raw, fallback string) string {
	path := strings.TrimSpace(raw)
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, `\`) {
		return fallback
	}
	return path
}

// statusForPostError 将服务层错误映射为 HTTP 状态码与提示。
func statusForPostError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return http.StatusNotFound, "post not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "post belongs to another user"
	default:
		return http.StatusInternalServerError, "failed to save post"
	}
}
