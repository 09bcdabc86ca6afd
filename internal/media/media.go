// Package media 负责动态图片的探测与存储。
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("media file is too large")
	ErrEmpty           = errors.New("media file is empty")
)

// Object 是保存后的媒体对象。
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
	Width       int
	Height      int
}

// Store 抽象媒体的持久化位置，本地磁盘或对象存储。
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (Object, error)
	Delete(ctx context.Context, key string) error
}

// Upload 读取文件内容，探测类型与尺寸后写入 store。maxBytes <= 0 表示不限制。
func Upload(ctx context.Context, store Store, name string, r io.Reader, maxBytes int64) (Object, error) {
	reader := r
	if maxBytes > 0 {
		reader = io.LimitReader(r, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return Object{}, fmt.Errorf("read media: %w", err)
	}
	if len(data) == 0 {
		return Object{}, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Object{}, ErrTooLarge
	}

	info, err := Probe(data)
	if err != nil {
		return Object{}, err
	}

	obj, err := store.Save(ctx, name, info.ContentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Object{}, err
	}
	obj.ContentType = info.ContentType
	obj.Size = int64(len(data))
	obj.Width = info.Width
	obj.Height = info.Height
	return obj, nil
}

var extensionsByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// SupportedType 报告客户端声明的类型是否在可保存的图片类型内，忽略大小写与参数。
func SupportedType(contentType string) bool {
	base := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	_, ok := extensionsByType[base]
	return ok
}

// extensionFor 优先根据探测到的类型决定扩展名，避免信任客户端文件名。
func extensionFor(name, contentType string) string {
	if ext, ok := extensionsByType[contentType]; ok {
		return ext
	}
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 && idx < len(name)-1 {
		return strings.ToLower(name[idx:])
	}
	return ".bin"
}
