package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"github.com/gin-gonic/gin"
)

const feedPageSize = 10

// ShowFeed 渲染首页动态流，支持 ?tag= 与 ?page= 过滤
func (a *API) ShowFeed(c *gin.Context) {
	tag := strings.TrimSpace(c.Query("tag"))
	page := parsePositiveQuery(c, "page", 1)

	result, err := a.posts.List(service.PostFilter{Tag: tag, Page: page, PerPage: feedPageSize})
	if err != nil {
		log.Printf("[ERROR] list posts: %v", err)
		c.String(http.StatusInternalServerError, "Could not load posts.")
		return
	}

	tags, err := a.tags.Usage(10)
	if err != nil {
		log.Printf("[WARN] tag usage: %v", err)
	}

	user, _ := currentUser(c)
	c.HTML(http.StatusOK, "feed.html", gin.H{
		"title":      "Feed",
		"posts":      result.Posts,
		"tags":       tags,
		"tag":        tag,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"userID":     user.ID,
		"username":   user.Username,
		"flashes":    consumeFlashes(c),
	})
}
