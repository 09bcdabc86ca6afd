package handler

import (
	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/Stephan-mit-Ph/Social-App/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	posts     *service.PostService
	tags      *service.TagService
	mutations *service.PostMutations
	tokens    *service.TokenService
	store     media.Store
	guard     *postform.Guard
	policy    postform.FailurePolicy
}

// Options 配置 API 的可选行为。
type Options struct {
	Store         media.Store
	Tokens        *service.TokenService
	FailurePolicy postform.FailurePolicy
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	posts := service.NewPostService(gdb, service.NewCaptionRenderer())
	tokens := opts.Tokens
	if tokens == nil {
		tokens = service.NewTokenService("social-dev-secret", 0)
	}

	return &API{
		db:        gdb,
		posts:     posts,
		tags:      service.NewTagService(gdb),
		mutations: service.NewPostMutations(posts, opts.Store),
		tokens:    tokens,
		store:     opts.Store,
		guard:     postform.NewGuard(),
		policy:    opts.FailurePolicy,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
