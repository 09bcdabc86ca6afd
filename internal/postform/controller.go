package postform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

var (
	ErrSubmitInFlight    = errors.New("a submission is already in progress")
	ErrNoIdentity        = errors.New("no authenticated user")
	ErrUpdateWithoutPost = errors.New("update action requires an existing post")
)

// Mutations 是远端写接口。
type Mutations interface {
	CreatePost(ctx context.Context, payload PostPayload) (*PostDocument, error)
	UpdatePost(ctx context.Context, postID uint, payload PostPayload) (*PostDocument, error)
}

// Identity 提供当前登录用户。
type Identity interface {
	CurrentUser() (User, bool)
}

// Notifier 展示一条短暂提示，不关心结果。
type Notifier interface {
	Notify(message string)
}

// Navigator 负责页面跳转。
type Navigator interface {
	Navigate(route string)
	Back()
}

// FailurePolicy 决定提交失败后是否离开表单。
type FailurePolicy int

const (
	// NavigateAwayOnFailure 失败时同样回到首页，草稿随之丢弃。
	NavigateAwayOnFailure FailurePolicy = iota
	// StayOnFailure 失败时停留在表单，保留草稿供用户重试。
	StayOnFailure
)

// ParseFailurePolicy 解析配置中的策略名称，未知值回退为 NavigateAwayOnFailure。
func ParseFailurePolicy(raw string) FailurePolicy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stay", "retry", "stay_on_failure":
		return StayOnFailure
	default:
		return NavigateAwayOnFailure
	}
}

func (p FailurePolicy) String() string {
	if p == StayOnFailure {
		return "stay"
	}
	return "navigate"
}

// Status 描述一次提交的结果。
type Status string

const (
	StatusInvalid    Status = "invalid"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusFailedStay Status = "failed_stay"
)

// Outcome 是 Submit 的返回值。
type Outcome struct {
	Status     Status
	Validation ValidationResult
	Post       *PostDocument
	Err        error
	Draft      Draft
	Navigated  bool
}

// Options 配置控制器。
type Options struct {
	Action        Action
	Existing      *PostDocument
	FailurePolicy FailurePolicy
	HomeRoute     string
	Guard         *Guard
}

// Guard 记录每个用户正在进行的提交，确保同一时间只有一个请求在途。
type Guard struct {
	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{inFlight: make(map[uint]struct{})}
}

func (g *Guard) acquire(userID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[userID]; busy {
		return false
	}
	g.inFlight[userID] = struct{}{}
	return true
}

func (g *Guard) release(userID uint) {
	g.mu.Lock()
	delete(g.inFlight, userID)
	g.mu.Unlock()
}

// Pending 返回该用户是否有提交尚未结束。
func (g *Guard) Pending(userID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[userID]
	return busy
}

// Controller 承载一个动态表单：校验草稿、提交写请求并处理跳转。
type Controller struct {
	mutations Mutations
	identity  Identity
	notifier  Notifier
	navigator Navigator
	opts      Options
}

// New 使用显式依赖构造控制器。更新模式必须提供 Existing。
func New(mutations Mutations, identity Identity, notifier Notifier, navigator Navigator, opts Options) (*Controller, error) {
	if opts.Action == "" {
		opts.Action = ActionCreate
	}
	if opts.Action == ActionUpdate && opts.Existing == nil {
		return nil, ErrUpdateWithoutPost
	}
	if strings.TrimSpace(opts.HomeRoute) == "" {
		opts.HomeRoute = "/"
	}
	if opts.Guard == nil {
		opts.Guard = NewGuard()
	}

	return &Controller{
		mutations: mutations,
		identity:  identity,
		notifier:  notifier,
		navigator: navigator,
		opts:      opts,
	}, nil
}

// Action 返回表单的动作。
func (c *Controller) Action() Action {
	return c.opts.Action
}

// SubmitLabel 返回提交按钮文案，例如 "Create Post"。
func (c *Controller) SubmitLabel() string {
	return string(c.opts.Action) + " Post"
}

// Draft 返回初始草稿，编辑模式下已预填。
func (c *Controller) Draft() Draft {
	return NewDraft(c.opts.Existing)
}

// Pending 返回当前用户是否有提交在途，用于禁用提交按钮。
func (c *Controller) Pending() bool {
	user, ok := c.identity.CurrentUser()
	if !ok {
		return false
	}
	return c.opts.Guard.Pending(user.ID)
}

// Validate 校验草稿。
func (c *Controller) Validate(d Draft) ValidationResult {
	return Validate(d)
}

// FailureMessage 返回提交失败时的提示文案。
func (c *Controller) FailureMessage() string {
	return fmt.Sprintf("%s post failed. Please try again.", c.opts.Action)
}

// Submit 校验并提交草稿。校验失败时不发起请求也不跳转；
// 请求结束后根据结果与 FailurePolicy 决定去向。
func (c *Controller) Submit(ctx context.Context, d Draft) (Outcome, error) {
	user, ok := c.identity.CurrentUser()
	if !ok {
		return Outcome{}, ErrNoIdentity
	}

	validation := Validate(d)
	if !validation.OK() {
		return Outcome{Status: StatusInvalid, Validation: validation, Draft: d}, nil
	}

	if !c.opts.Guard.acquire(user.ID) {
		return Outcome{}, ErrSubmitInFlight
	}

	doc, err := c.mutate(ctx, c.payload(d, user))
	c.opts.Guard.release(user.ID)

	if doc != nil && err == nil {
		c.navigator.Navigate(c.opts.HomeRoute)
		return Outcome{Status: StatusSucceeded, Post: doc, Navigated: true}, nil
	}

	if err != nil {
		log.Printf("[ERROR] %s post for user %d: %v", strings.ToLower(string(c.opts.Action)), user.ID, err)
	}
	c.notifier.Notify(c.FailureMessage())

	if c.opts.FailurePolicy == StayOnFailure {
		return Outcome{Status: StatusFailedStay, Err: err, Draft: d}, nil
	}

	c.navigator.Navigate(c.opts.HomeRoute)
	return Outcome{Status: StatusFailed, Err: err, Navigated: true}, nil
}

// Cancel 返回上一页，不做校验也不保存草稿。
func (c *Controller) Cancel() {
	c.navigator.Back()
}

func (c *Controller) payload(d Draft, user User) PostPayload {
	return PostPayload{
		Caption:  strings.TrimSpace(d.Caption),
		Files:    d.Files,
		MediaURL: strings.TrimSpace(d.MediaURL),
		Location: strings.TrimSpace(d.Location),
		Tags:     NormalizeTags(d.Tags),
		AuthorID: user.ID,
	}
}

func (c *Controller) mutate(ctx context.Context, payload PostPayload) (doc *PostDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("mutation panicked: %v", r)
		}
	}()

	if c.opts.Action == ActionUpdate {
		return c.mutations.UpdatePost(ctx, c.opts.Existing.ID, payload)
	}
	return c.mutations.CreatePost(ctx, payload)
}
