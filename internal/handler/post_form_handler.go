package handler

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"github.com/gin-gonic/gin"
)

const homeRoute = "/"

func (a *API) newController(c *gin.Context, action postform.Action, existing *postform.PostDocument, notifier postform.Notifier, nav *navigationRecorder) (*postform.Controller, error) {
	return postform.New(a.mutations, contextIdentity{c: c}, notifier, nav, postform.Options{
		Action:        action,
		Existing:      existing,
		FailurePolicy: a.policy,
		HomeRoute:     homeRoute,
		Guard:         a.guard,
	})
}

// loadEditable 读取当前用户可编辑的动态。
func (a *API) loadEditable(c *gin.Context) (*postform.PostDocument, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, service.ErrPostNotFound
	}

	post, err := a.posts.Get(id)
	if err != nil {
		return nil, err
	}

	user, _ := currentUser(c)
	if post.UserID != user.ID {
		return nil, service.ErrForbidden
	}
	return service.ToDocument(post), nil
}

// ShowPostNew 渲染创建动态表单
func (a *API) ShowPostNew(c *gin.Context) {
	nav := &navigationRecorder{}
	ctrl, err := a.newController(c, postform.ActionCreate, nil, flashNotifier{c: c}, nav)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	a.renderForm(c, http.StatusOK, ctrl, "/posts", ctrl.Draft(), postform.ValidationResult{}, "")
}

// ShowPostEdit 渲染编辑动态表单，字段由已有动态预填
func (a *API) ShowPostEdit(c *gin.Context) {
	existing, err := a.loadEditable(c)
	if err != nil {
		a.redirectWithNotice(c, err)
		return
	}

	nav := &navigationRecorder{}
	ctrl, err := a.newController(c, postform.ActionUpdate, existing, flashNotifier{c: c}, nav)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	a.renderForm(c, http.StatusOK, ctrl, editFormAction(existing.ID), ctrl.Draft(), postform.ValidationResult{}, "")
}

// SubmitPostForm 处理创建动态的表单提交
func (a *API) SubmitPostForm(c *gin.Context) {
	a.submitForm(c, postform.ActionCreate, nil, "/posts")
}

// SubmitPostEditForm 处理编辑动态的表单提交
func (a *API) SubmitPostEditForm(c *gin.Context) {
	existing, err := a.loadEditable(c)
	if err != nil {
		a.redirectWithNotice(c, err)
		return
	}
	a.submitForm(c, postform.ActionUpdate, existing, editFormAction(existing.ID))
}

// CancelPostForm 放弃草稿并返回上一页
func (a *API) CancelPostForm(c *gin.Context) {
	nav := &navigationRecorder{backTo: safeReturnPath(c.PostForm("return_to"), homeRoute)}
	ctrl, err := a.newController(c, postform.ActionCreate, nil, flashNotifier{c: c}, nav)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	ctrl.Cancel()
	target, _ := nav.Redirected()
	c.Redirect(http.StatusSeeOther, target)
}

func (a *API) submitForm(c *gin.Context, action postform.Action, existing *postform.PostDocument, formAction string) {
	nav := &navigationRecorder{backTo: safeReturnPath(c.PostForm("return_to"), homeRoute)}
	ctrl, err := a.newController(c, action, existing, flashNotifier{c: c}, nav)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	draft, err := bindDraft(c)
	if err != nil {
		a.renderForm(c, http.StatusBadRequest, ctrl, formAction, draft, postform.ValidationResult{}, "The form could not be read. Please try again.")
		return
	}

	outcome, err := ctrl.Submit(c.Request.Context(), draft)
	switch {
	case errors.Is(err, postform.ErrNoIdentity):
		c.Redirect(http.StatusFound, "/login")
		return
	case errors.Is(err, postform.ErrSubmitInFlight):
		a.renderForm(c, http.StatusConflict, ctrl, formAction, draft, postform.ValidationResult{}, "A submission is already in progress.")
		return
	case err != nil:
		log.Printf("[ERROR] submit post form: %v", err)
		a.renderForm(c, http.StatusInternalServerError, ctrl, formAction, draft, postform.ValidationResult{}, "Something went wrong. Please try again.")
		return
	}

	if target, ok := nav.Redirected(); ok {
		c.Redirect(http.StatusSeeOther, target)
		return
	}

	switch outcome.Status {
	case postform.StatusInvalid:
		a.renderForm(c, http.StatusUnprocessableEntity, ctrl, formAction, outcome.Draft, outcome.Validation, "")
	case postform.StatusFailedStay:
		a.renderForm(c, http.StatusInternalServerError, ctrl, formAction, outcome.Draft, postform.ValidationResult{}, "")
	default:
		c.Redirect(http.StatusSeeOther, homeRoute)
	}
}

func (a *API) renderForm(c *gin.Context, status int, ctrl *postform.Controller, formAction string, draft postform.Draft, validation postform.ValidationResult, formError string) {
	user, _ := currentUser(c)
	c.HTML(status, "post_form.html", gin.H{
		"title":       ctrl.SubmitLabel(),
		"action":      string(ctrl.Action()),
		"formAction":  formAction,
		"submitLabel": ctrl.SubmitLabel(),
		"pending":     ctrl.Pending(),
		"draft":       draft,
		"errors":      validation.ByField(),
		"formError":   formError,
		"returnTo":    formReturnPath(c),
		"flashes":     consumeFlashes(c),
		"username":    user.Username,
	})
}

func (a *API) redirectWithNotice(c *gin.Context, err error) {
	notice := "Post not found."
	if errors.Is(err, service.ErrForbidden) {
		notice = "You can only edit your own posts."
	} else if !errors.Is(err, service.ErrPostNotFound) {
		log.Printf("[ERROR] load post for edit: %v", err)
		notice = "Could not load the post."
	}
	flashNotifier{c: c}.Notify(notice)
	c.Redirect(http.StatusSeeOther, homeRoute)
}

// bindDraft 从表单（multipart 或 urlencoded）读取草稿字段。
func bindDraft(c *gin.Context) (postform.Draft, error) {
	draft := postform.Draft{
		Caption:  c.PostForm("caption"),
		MediaURL: c.PostForm("media_url"),
		Location: c.PostForm("location"),
		Tags:     c.PostForm("tags"),
	}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return draft, nil
		}
		return draft, err
	}

	for _, fh := range form.File["file"] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		draft.Files = append(draft.Files, mediaFile(fh))
	}
	return draft, nil
}

func mediaFile(fh *multipart.FileHeader) postform.MediaFile {
	return postform.MediaFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func editFormAction(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10)
}

// formReturnPath 决定取消按钮的返回地址：显式参数优先，其次是同站 Referer。
func formReturnPath(c *gin.Context) string {
	if explicit := c.PostForm("return_to"); explicit != "" {
		return safeReturnPath(explicit, homeRoute)
	}
	if explicit := c.Query("return_to"); explicit != "" {
		return safeReturnPath(explicit, homeRoute)
	}

	referer := strings.TrimSpace(c.Request.Referer())
	if referer == "" {
		return homeRoute
	}
	parsed, err := url.Parse(referer)
	if err != nil || (parsed.Host != "" && parsed.Host != c.Request.Host) {
		return homeRoute
	}
	target := parsed.Path
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	return safeReturnPath(target, homeRoute)
}
