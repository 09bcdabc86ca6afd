package handler

import (
	"log"

	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserIDKey   = "user_id"
	ctxUsernameKey = "username"
)

// contextIdentity 从认证中间件写入的上下文中读取当前用户。
type contextIdentity struct {
	c *gin.Context
}

func (i contextIdentity) CurrentUser() (postform.User, bool) {
	return currentUser(i.c)
}

func currentUser(c *gin.Context) (postform.User, bool) {
	raw, exists := c.Get(ctxUserIDKey)
	if !exists {
		return postform.User{}, false
	}
	id, ok := raw.(uint)
	if !ok || id == 0 {
		return postform.User{}, false
	}
	return postform.User{ID: id, Username: c.GetString(ctxUsernameKey)}, true
}

func setCurrentUser(c *gin.Context, id uint, username string) {
	c.Set(ctxUserIDKey, id)
	c.Set(ctxUsernameKey, username)
}

// flashNotifier 将提示写入会话 flash，在下一次页面渲染时展示。
type flashNotifier struct {
	c *gin.Context
}

func (n flashNotifier) Notify(message string) {
	session := sessions.Default(n.c)
	session.AddFlash(message)
	if err := session.Save(); err != nil {
		log.Printf("[WARN] save flash: %v", err)
	}
}

// collectingNotifier 收集提示，随 JSON 响应一起返回。
type collectingNotifier struct {
	messages []string
}

func (n *collectingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

// navigationRecorder 记录控制器的跳转决定，由 handler 负责真正的响应。
type navigationRecorder struct {
	backTo string
	target string
}

func (n *navigationRecorder) Navigate(route string) {
	n.target = route
}

func (n *navigationRecorder) Back() {
	n.target = n.backTo
}

func (n *navigationRecorder) Redirected() (string, bool) {
	return n.target, n.target != ""
}

func consumeFlashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log.Printf("[WARN] clear flashes: %v", err)
	}

	messages := make([]string, 0, len(raw))
	for _, item := range raw {
		if msg, ok := item.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
