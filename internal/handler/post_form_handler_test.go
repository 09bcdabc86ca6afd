package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
)

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestShowPostNewRendersEmptyDraft(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	env.asUserID = env.alice.ID

	req := httptest.NewRequest(http.MethodGet, "/posts/new?return_to=/?tag=go", nil)
	w := env.serve(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env.html.last.name != "post_form.html" {
		t.Fatalf("expected post_form.html, got %s", env.html.last.name)
	}

	data := env.html.data(t)
	if data["submitLabel"] != "Create Post" || data["formAction"] != "/posts" {
		t.Fatalf("unexpected form labels: %v / %v", data["submitLabel"], data["formAction"])
	}
	if data["pending"] != false {
		t.Fatalf("expected form not to be pending")
	}
	if draft := data["draft"].(postform.Draft); draft.Caption != "" || draft.Tags != "" || draft.MediaURL != "" {
		t.Fatalf("expected empty draft, got %+v", draft)
	}
	if data["returnTo"] != "/?tag=go" {
		t.Fatalf("expected return path to be kept, got %v", data["returnTo"])
	}
}

func TestShowPostNewRedirectsAnonymousUsers(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)

	w := env.serve(httptest.NewRequest(http.MethodGet, "/posts/new", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestShowPostEditPrefillsDraft(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	post := env.createPost(t, env.alice, "Existing caption", "beach", "summer")
	env.asUserID = env.alice.ID

	w := env.serve(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/posts/%d/edit", post.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	data := env.html.data(t)
	draft := data["draft"].(postform.Draft)
	if draft.Caption != "Existing caption" || draft.Location != "Lisbon" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.Tags != "beach,summer" {
		t.Fatalf("expected tags joined with commas, got %q", draft.Tags)
	}
	if draft.MediaURL != "/static/uploads/seed.png" {
		t.Fatalf("expected existing media url, got %q", draft.MediaURL)
	}
	if data["submitLabel"] != "Update Post" || data["formAction"] != fmt.Sprintf("/posts/%d", post.ID) {
		t.Fatalf("unexpected form labels: %v / %v", data["submitLabel"], data["formAction"])
	}
}

func TestShowPostEditRejectsOtherUsers(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	post := env.createPost(t, env.alice, "Alice only")
	env.asUserID = env.bob.ID

	w := env.serve(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/posts/%d/edit", post.ID), nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestSubmitPostFormRendersValidationErrors(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	env.asUserID = env.alice.ID

	w := env.serve(formRequest("/posts", url.Values{
		"caption": {"hi"},
		"tags":    {"ok"},
	}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	data := env.html.data(t)
	errs := data["errors"].(map[string]string)
	if errs["caption"] == "" || errs["location"] == "" {
		t.Fatalf("expected caption and location errors, got %v", errs)
	}
	if draft := data["draft"].(postform.Draft); draft.Caption != "hi" || draft.Tags != "ok" {
		t.Fatalf("expected draft to be kept, got %+v", draft)
	}

	var count int64
	env.db.Model(&db.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no post to be created, found %d", count)
	}
}

func TestSubmitPostFormCreatesAndRedirectsHome(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	env.asUserID = env.alice.ID

	w := env.serve(multipartRequest(t, "/posts", map[string]string{
		"caption":  "Morning coffee",
		"location": "Vienna",
		"tags":     "coffee, morning",
	}, "file", pngBytes(t)))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected 303 to /, got %d %q", w.Code, w.Header().Get("Location"))
	}

	var post db.Post
	if err := env.db.Preload("Tags").Preload("Media").First(&post).Error; err != nil {
		t.Fatalf("expected post to be stored: %v", err)
	}
	if post.UserID != env.alice.ID || post.Caption != "Morning coffee" {
		t.Fatalf("unexpected post: %+v", post)
	}
	if got := strings.Join(post.TagNames(), ","); got != "coffee,morning" {
		t.Fatalf("unexpected tags: %q", got)
	}
	if len(post.Media) != 1 {
		t.Fatalf("expected one media item, got %d", len(post.Media))
	}
}

func TestSubmitPostEditFormUpdatesPost(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	post := env.createPost(t, env.alice, "Before edit", "old")
	env.asUserID = env.alice.ID

	w := env.serve(formRequest(fmt.Sprintf("/posts/%d", post.ID), url.Values{
		"caption":   {"After edit"},
		"location":  {"Lisbon"},
		"tags":      {"new"},
		"media_url": {"/static/uploads/seed.png"},
	}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	var stored db.Post
	if err := env.db.Preload("Tags").Preload("Media").First(&stored, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if stored.Caption != "After edit" || strings.Join(stored.TagNames(), ",") != "new" {
		t.Fatalf("unexpected stored post: %+v", stored)
	}
	if stored.CoverURL() != "/static/uploads/seed.png" {
		t.Fatalf("expected media to be kept, got %q", stored.CoverURL())
	}
}

func TestSubmitPostFormFailureStaysOnForm(t *testing.T) {
	env := newHandlerEnv(t, postform.StayOnFailure, false)
	env.asUserID = env.alice.ID

	w := env.serve(multipartRequest(t, "/posts", map[string]string{
		"caption":  "Upload without storage",
		"location": "Prague",
	}, "file", pngBytes(t)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	data := env.html.data(t)
	if draft := data["draft"].(postform.Draft); draft.Caption != "Upload without storage" {
		t.Fatalf("expected draft to be kept, got %+v", draft)
	}
	flashes, _ := data["flashes"].([]string)
	if len(flashes) != 1 || flashes[0] != "Create post failed. Please try again." {
		t.Fatalf("expected failure notification, got %v", flashes)
	}
}

func TestSubmitPostFormFailureNavigatesHome(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, false)
	env.asUserID = env.alice.ID

	w := env.serve(multipartRequest(t, "/posts", map[string]string{
		"caption":  "Upload without storage",
		"location": "Prague",
	}, "file", pngBytes(t)))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected 303 to /, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if w.Header().Get("Set-Cookie") == "" {
		t.Fatal("expected the failure notification to be stored in the session")
	}
}

func TestCancelPostFormReturnsToPreviousPage(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	env.asUserID = env.alice.ID

	cases := map[string]string{
		"/?tag=travel":     "/?tag=travel",
		"":                 "/",
		"//evil.example":   "/",
		"https://evil.com": "/",
	}
	for returnTo, want := range cases {
		w := env.serve(formRequest("/posts/cancel", url.Values{
			"return_to": {returnTo},
			"caption":   {"x"},
		}))
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != want {
			t.Fatalf("return_to %q: expected 303 to %q, got %d %q", returnTo, want, w.Code, w.Header().Get("Location"))
		}
	}

	var count int64
	env.db.Model(&db.Post{}).Count(&count)
	if count != 0 {
		t.Fatalf("cancel must not save anything, found %d posts", count)
	}
}

func TestShowFeedListsPosts(t *testing.T) {
	env := newHandlerEnv(t, postform.NavigateAwayOnFailure, true)
	env.createPost(t, env.alice, "First post", "go")
	env.createPost(t, env.bob, "Second post", "go")
	env.asUserID = env.alice.ID

	w := env.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || env.html.last.name != "feed.html" {
		t.Fatalf("expected feed.html, got %d %v", w.Code, env.html.last)
	}

	data := env.html.data(t)
	posts := data["posts"].([]db.Post)
	if len(posts) != 2 || posts[0].Caption != "Second post" {
		t.Fatalf("expected newest post first, got %+v", posts)
	}
	if data["userID"] != env.alice.ID {
		t.Fatalf("expected viewer id %d, got %v", env.alice.ID, data["userID"])
	}
}
