// Package postform 实现发布/编辑动态表单的控制逻辑：草稿、校验、提交与跳转。
package postform

import (
	"io"
	"strings"
)

// Action 区分表单是创建还是更新动态。
type Action string

const (
	ActionCreate Action = "Create"
	ActionUpdate Action = "Update"
)

// ParseAction 将外部传入的字符串解析为 Action，无法识别时回退为创建。
func ParseAction(raw string) Action {
	if strings.EqualFold(strings.TrimSpace(raw), string(ActionUpdate)) {
		return ActionUpdate
	}
	return ActionCreate
}

// User 是当前提交表单的用户，只读。
type User struct {
	ID       uint
	Username string
}

// MediaFile 描述一个待上传的附件。
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// PostDocument 是远端保存后的动态表示。
type PostDocument struct {
	ID        uint
	Caption   string
	Location  string
	Tags      []string
	MediaURLs []string
	AuthorID  uint
}

// PostPayload 是提交给 Mutations 的请求体。
type PostPayload struct {
	Caption  string
	Files    []MediaFile
	MediaURL string
	Location string
	Tags     []string
	AuthorID uint
}

// Draft 保存尚未提交的表单字段。
type Draft struct {
	Caption  string
	Files    []MediaFile
	MediaURL string
	Location string
	Tags     string
}

// NewDraft 创建空草稿；编辑已有动态时用其字段预填。
func NewDraft(existing *PostDocument) Draft {
	if existing == nil {
		return Draft{}
	}

	draft := Draft{
		Caption:  existing.Caption,
		Location: existing.Location,
		Tags:     strings.Join(existing.Tags, ","),
	}
	if len(existing.MediaURLs) > 0 {
		draft.MediaURL = existing.MediaURLs[0]
	}
	return draft
}
