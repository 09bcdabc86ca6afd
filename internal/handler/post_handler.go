package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"github.com/gin-gonic/gin"
)

type postView struct {
	ID          uint      `json:"id"`
	Caption     string    `json:"caption"`
	CaptionHTML string    `json:"caption_html"`
	Location    string    `json:"location"`
	Tags        []string  `json:"tags"`
	MediaURLs   []string  `json:"media_urls"`
	AuthorID    uint      `json:"author_id"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newPostView(post *db.Post) postView {
	return postView{
		ID:          post.ID,
		Caption:     post.Caption,
		CaptionHTML: post.CaptionHTML,
		Location:    post.Location,
		Tags:        post.TagNames(),
		MediaURLs:   post.MediaURLs(),
		AuthorID:    post.UserID,
		Author:      post.User.Username,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

// postRequest 是 JSON 提交的草稿，字段与表单保持一致。
type postRequest struct {
	Caption  string `json:"caption"`
	MediaURL string `json:"media_url"`
	Location string `json:"location"`
	Tags     string `json:"tags"`
}

// ListPosts 获取动态列表
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Tag:     strings.TrimSpace(c.Query("tag")),
		Page:    parsePositiveQuery(c, "page", 1),
		PerPage: parsePositiveQuery(c, "per_page", feedPageSize),
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if id := parsePositiveQuery(c, "user_id", 0); id > 0 {
			filter.UserID = uint(id)
		}
	}

	result, err := a.posts.List(filter)
	if err != nil {
		log.Printf("[ERROR] list posts: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}

	views := make([]postView, 0, len(result.Posts))
	for i := range result.Posts {
		views = append(views, newPostView(&result.Posts[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       views,
		"total":       result.Total,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_pages": result.TotalPages,
	})
}

// GetPost 获取单条动态
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": newPostView(post)})
}

// CreatePost 通过 API 创建动态，接受 JSON 或 multipart 表单
func (a *API) CreatePost(c *gin.Context) {
	a.submitAPI(c, postform.ActionCreate, nil, http.StatusCreated)
}

// UpdatePost 通过 API 更新动态
func (a *API) UpdatePost(c *gin.Context) {
	existing, err := a.loadEditable(c)
	if err != nil {
		status, message := statusForPostError(err)
		respondError(c, status, message)
		return
	}
	a.submitAPI(c, postform.ActionUpdate, existing, http.StatusOK)
}

// DeletePost 删除动态及其媒体
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid post id")
		return
	}

	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := a.mutations.DeletePost(c.Request.Context(), id, user.ID); err != nil {
		status, message := statusForPostError(err)
		if status == http.StatusInternalServerError {
			log.Printf("[ERROR] delete post %d: %v", id, err)
			message = "failed to delete post"
		}
		respondError(c, status, message)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) submitAPI(c *gin.Context, action postform.Action, existing *postform.PostDocument, successStatus int) {
	notifier := &collectingNotifier{}
	nav := &navigationRecorder{backTo: safeReturnPath(c.Query("return_to"), homeRoute)}
	ctrl, err := a.newController(c, action, existing, notifier, nav)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	draft, ok := bindAPIDraft(c)
	if !ok {
		return
	}

	outcome, err := ctrl.Submit(c.Request.Context(), draft)
	switch {
	case errors.Is(err, postform.ErrNoIdentity):
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	case errors.Is(err, postform.ErrSubmitInFlight):
		respondError(c, http.StatusConflict, "a submission is already in progress")
		return
	case err != nil:
		log.Printf("[ERROR] submit post: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to save post")
		return
	}

	redirect, _ := nav.Redirected()
	switch outcome.Status {
	case postform.StatusInvalid:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": outcome.Validation.ByField()})
	case postform.StatusSucceeded:
		post, err := a.posts.Get(outcome.Post.ID)
		if err != nil {
			// 已经保存成功，退回到控制器返回的文档
			log.Printf("[WARN] reload post %d: %v", outcome.Post.ID, err)
			c.JSON(successStatus, gin.H{"post": outcome.Post, "redirect": redirect})
			return
		}
		c.JSON(successStatus, gin.H{"post": newPostView(post), "redirect": redirect})
	default:
		status, message := statusForPostError(outcome.Err)
		c.JSON(status, gin.H{
			"error":         message,
			"notifications": notifier.messages,
			"redirect":      redirect,
			"draft": postRequest{
				Caption:  outcome.Draft.Caption,
				MediaURL: outcome.Draft.MediaURL,
				Location: outcome.Draft.Location,
				Tags:     outcome.Draft.Tags,
			},
		})
	}
}

func bindAPIDraft(c *gin.Context) (postform.Draft, bool) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req postRequest
		if !bindJSON(c, &req, "invalid request body") {
			return postform.Draft{}, false
		}
		return postform.Draft{
			Caption:  req.Caption,
			MediaURL: req.MediaURL,
			Location: req.Location,
			Tags:     req.Tags,
		}, true
	}

	draft, err := bindDraft(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid form data")
		return postform.Draft{}, false
	}
	return draft, true
}
