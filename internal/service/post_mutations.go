package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
)

// PostMutations 将表单提交转换为媒体上传与 PostService 写入，实现 postform.Mutations。
type PostMutations struct {
	posts    *PostService
	store    media.Store
	maxBytes int64
}

var _ postform.Mutations = (*PostMutations)(nil)

// NewPostMutations creates a PostMutations instance.
func NewPostMutations(posts *PostService, store media.Store) *PostMutations {
	return &PostMutations{posts: posts, store: store, maxBytes: postform.MaxFileBytes}
}

// CreatePost 上传附件并创建动态。
func (m *PostMutations) CreatePost(ctx context.Context, payload postform.PostPayload) (*postform.PostDocument, error) {
	uploaded, err := m.uploadAll(ctx, payload.Files)
	if err != nil {
		return nil, err
	}

	items := uploaded
	if len(items) == 0 {
		items = linkedMedia(payload.MediaURL)
	}

	post, err := m.posts.Create(PostInput{
		Caption:  payload.Caption,
		Location: payload.Location,
		TagNames: payload.Tags,
		Media:    items,
		UserID:   payload.AuthorID,
	})
	if err != nil {
		m.cleanup(ctx, uploaded)
		return nil, err
	}

	return ToDocument(post), nil
}

// UpdatePost 更新动态；有新附件时替换旧媒体并清理存储。
func (m *PostMutations) UpdatePost(ctx context.Context, postID uint, payload postform.PostPayload) (*postform.PostDocument, error) {
	items := []db.PostMedia(nil)
	if len(payload.Files) == 0 && payload.MediaURL != "" {
		current, err := m.posts.Get(postID)
		if err != nil {
			return nil, err
		}
		if !containsURL(current.MediaURLs(), payload.MediaURL) {
			items = linkedMedia(payload.MediaURL)
		}
	}

	uploaded, err := m.uploadAll(ctx, payload.Files)
	if err != nil {
		return nil, err
	}
	if len(uploaded) > 0 {
		items = uploaded
	}

	post, replaced, err := m.posts.Update(postID, PostInput{
		Caption:  payload.Caption,
		Location: payload.Location,
		TagNames: payload.Tags,
		Media:    items,
		UserID:   payload.AuthorID,
	})
	if err != nil {
		m.cleanup(ctx, uploaded)
		return nil, err
	}

	m.cleanup(ctx, replaced)
	return ToDocument(post), nil
}

// DeletePost 删除动态及其媒体文件。
func (m *PostMutations) DeletePost(ctx context.Context, postID, userID uint) error {
	removed, err := m.posts.Delete(postID, userID)
	if err != nil {
		return err
	}
	m.cleanup(ctx, removed)
	return nil
}

func (m *PostMutations) uploadAll(ctx context.Context, files []postform.MediaFile) ([]db.PostMedia, error) {
	uploaded := make([]db.PostMedia, 0, len(files))
	for _, file := range files {
		item, err := m.upload(ctx, file)
		if err != nil {
			m.cleanup(ctx, uploaded)
			return nil, fmt.Errorf("upload %s: %w", file.Name, err)
		}
		uploaded = append(uploaded, item)
	}
	return uploaded, nil
}

func (m *PostMutations) upload(ctx context.Context, file postform.MediaFile) (db.PostMedia, error) {
	if m.store == nil {
		return db.PostMedia{}, errors.New("media store not configured")
	}
	if file.Open == nil {
		return db.PostMedia{}, media.ErrEmpty
	}

	rc, err := file.Open()
	if err != nil {
		return db.PostMedia{}, err
	}
	defer rc.Close()

	obj, err := media.Upload(ctx, m.store, file.Name, rc, m.maxBytes)
	if err != nil {
		return db.PostMedia{}, err
	}

	return db.PostMedia{
		URL:         obj.URL,
		ObjectKey:   obj.Key,
		ContentType: obj.ContentType,
		Width:       obj.Width,
		Height:      obj.Height,
	}, nil
}

func (m *PostMutations) cleanup(ctx context.Context, items []db.PostMedia) {
	if m.store == nil {
		return
	}
	for _, item := range items {
		if item.ObjectKey == "" {
			continue
		}
		if err := m.store.Delete(ctx, item.ObjectKey); err != nil {
			log.Printf("[WARN] delete media %s: %v", item.ObjectKey, err)
		}
	}
}

// linkedMedia 引用已上传（例如通过 /api/uploads）的图片地址，不归本动态管理存储。
func linkedMedia(url string) []db.PostMedia {
	if url == "" {
		return nil
	}
	return []db.PostMedia{{URL: url}}
}

func containsURL(urls []string, target string) bool {
	for _, url := range urls {
		if url == target {
			return true
		}
	}
	return false
}

// ToDocument 将数据库模型转换为表单使用的文档表示。
func ToDocument(post *db.Post) *postform.PostDocument {
	if post == nil {
		return nil
	}
	return &postform.PostDocument{
		ID:        post.ID,
		Caption:   post.Caption,
		Location:  post.Location,
		Tags:      post.TagNames(),
		MediaURLs: post.MediaURLs(),
		AuthorID:  post.UserID,
	}
}
