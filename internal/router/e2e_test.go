package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/Stephan-mit-Ph/Social-App/internal/handler"
	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler   http.Handler
	browser   *localClient
	anonymous *localClient
	baseURL   string
	uploadDir string
	db        *gorm.DB
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func newE2ESuite(t *testing.T, policy postform.FailurePolicy) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := db.EnsureUser(gdb, "maria", "e2e-secret"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	uploadDir := t.TempDir()
	api := handler.NewAPI(gdb, handler.Options{
		Store:         media.NewLocalStore(uploadDir, "/static/uploads"),
		Tokens:        service.NewTokenService("e2e-jwt", time.Hour),
		FailurePolicy: policy,
	})
	engine := SetupRouter(api, Options{
		SessionSecret: "e2e-session",
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	})

	return &e2eSuite{
		handler:   engine,
		browser:   newLocalClient(engine, true),
		anonymous: newLocalClient(engine, false),
		baseURL:   "http://social.test",
		uploadDir: uploadDir,
		db:        gdb,
	}
}

func (s *e2eSuite) do(t *testing.T, client *localClient, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(body)
}

func (s *e2eSuite) form(t *testing.T, path string, values url.Values) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (s *e2eSuite) get(t *testing.T, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	return req
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	resp, _ := s.do(t, s.browser, s.form(t, "/login", url.Values{
		"username": {"maria"},
		"password": {"e2e-secret"},
	}))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected login redirect, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) photoForm(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var photo bytes.Buffer
	if err := png.Encode(&photo, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		writer.WriteField(key, value)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="beach.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write(photo.Bytes())
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, &body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestE2E_CreateEditAndBrowse(t *testing.T) {
	s := newE2ESuite(t, postform.NavigateAwayOnFailure)
	s.login(t)

	resp, body := s.do(t, s.browser, s.get(t, "/posts/new"))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Create Post") {
		t.Fatalf("expected create form, got %d", resp.StatusCode)
	}

	// 校验失败：停留在表单并展示字段错误
	resp, body = s.do(t, s.browser, s.form(t, "/posts", url.Values{"caption": {"hey"}}))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Caption must be at least 5 characters.") || !strings.Contains(body, "Location is required.") {
		t.Fatalf("expected field errors in body: %s", body)
	}

	resp, _ = s.do(t, s.browser, s.photoForm(t, "/posts", map[string]string{
		"caption":  "A day at the **beach**",
		"location": "Nazaré",
		"tags":     "beach, summer, Beach",
	}))
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = s.do(t, s.browser, s.get(t, "/"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected feed, got %d", resp.StatusCode)
	}
	for _, want := range []string{"<strong>beach</strong>", "Nazaré", "#summer", "/static/uploads/"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected feed to contain %q: %s", want, body)
		}
	}

	var post db.Post
	if err := s.db.Preload("Media").First(&post).Error; err != nil {
		t.Fatalf("expected stored post: %v", err)
	}
	if len(post.Media) != 1 {
		t.Fatalf("expected one media item, got %d", len(post.Media))
	}
	if _, err := os.Stat(filepath.Join(s.uploadDir, post.Media[0].ObjectKey)); err != nil {
		t.Fatalf("expected uploaded file on disk: %v", err)
	}

	resp, body = s.do(t, s.browser, s.get(t, fmt.Sprintf("/posts/%d/edit", post.ID)))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Update Post") || !strings.Contains(body, "beach,summer") {
		t.Fatalf("expected prefilled edit form, got %d: %s", resp.StatusCode, body)
	}

	resp, _ = s.do(t, s.browser, s.form(t, fmt.Sprintf("/posts/%d", post.ID), url.Values{
		"caption":   {"A day at the beach, edited"},
		"location":  {"Nazaré"},
		"tags":      {"beach"},
		"media_url": {post.CoverURL()},
	}))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect after update, got %d", resp.StatusCode)
	}

	resp, body = s.do(t, s.anonymous, s.get(t, fmt.Sprintf("/api/posts/%d", post.ID)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected public post json, got %d", resp.StatusCode)
	}
	var payload struct {
		Post struct {
			Caption   string   `json:"caption"`
			Tags      []string `json:"tags"`
			MediaURLs []string `json:"media_urls"`
		} `json:"post"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("failed to decode post: %v", err)
	}
	if payload.Post.Caption != "A day at the beach, edited" || len(payload.Post.Tags) != 1 || len(payload.Post.MediaURLs) != 1 {
		t.Fatalf("unexpected post after update: %+v", payload.Post)
	}
}

func TestE2E_CancelReturnsWithoutSaving(t *testing.T) {
	s := newE2ESuite(t, postform.NavigateAwayOnFailure)
	s.login(t)

	resp, _ := s.do(t, s.browser, s.form(t, "/posts/cancel", url.Values{
		"caption":   {"never saved"},
		"return_to": {"/?tag=beach"},
	}))
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/?tag=beach" {
		t.Fatalf("expected redirect back, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	var count int64
	s.db.Model(&db.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected nothing saved, got %d posts", count)
	}
}

func TestE2E_TokenClientCanPost(t *testing.T) {
	s := newE2ESuite(t, postform.NavigateAwayOnFailure)

	tokenReq, _ := http.NewRequest(http.MethodPost, s.baseURL+"/api/auth/token", strings.NewReader(`{"username":"maria","password":"e2e-secret"}`))
	tokenReq.Header.Set("Content-Type", "application/json")
	resp, body := s.do(t, s.anonymous, tokenReq)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected token, got %d: %s", resp.StatusCode, body)
	}
	var token struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(body), &token); err != nil || token.Token == "" {
		t.Fatalf("failed to decode token %q: %v", body, err)
	}

	req, _ := http.NewRequest(http.MethodPost, s.baseURL+"/api/posts", strings.NewReader(`{"caption":"Posted from the app","location":"Faro","tags":"mobile"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Token)
	resp, body = s.do(t, s.anonymous, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
}
