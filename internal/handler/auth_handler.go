package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title":   "Log in",
		"flashes": consumeFlashes(c),
	})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	user, err := db.Authenticate(a.db, username, password)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Login failed. Please try again."
		if errors.Is(err, db.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			message = "Invalid username or password."
		}
		c.HTML(status, "login.html", gin.H{
			"title": "Log in",
			"error": message,
			"name":  username,
		})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set(ctxUserIDKey, user.ID)
	session.Set(ctxUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"title": "Log in", "error": "Could not save session."})
		return
	}

	c.Redirect(http.StatusFound, safeReturnPath(c.PostForm("return_to"), "/"))
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/login")
}

// LoadSessionUser 如果会话中有登录用户，写入请求上下文；不会拦截匿名请求。
func LoadSessionUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if id, ok := session.Get(ctxUserIDKey).(uint); ok && id != 0 {
			username, _ := session.Get(ctxUsernameKey).(string)
			setCurrentUser(c, id, username)
		}
		c.Next()
	}
}

// AuthRequired 要求页面请求已登录，否则跳转到登录页。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIAuthRequired 接受 Bearer 令牌或会话，两者都没有时返回 401。
func (a *API) APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(c, http.StatusUnauthorized, "authorization header must be: Bearer <token>")
				c.Abort()
				return
			}

			id, username, err := a.tokens.Parse(parts[1])
			if err != nil {
				respondError(c, http.StatusUnauthorized, "invalid token")
				c.Abort()
				return
			}
			setCurrentUser(c, id, username)
			c.Next()
			return
		}

		if _, ok := currentUser(c); !ok {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// IssueToken 校验用户名密码后签发 API 令牌。
func (a *API) IssueToken(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req, "username and password are required") {
		return
	}

	user, err := db.Authenticate(a.db, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expiresAt,
	})
}
