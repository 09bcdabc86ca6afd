package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore 将媒体写入本地目录，并通过静态路由对外提供。
type LocalStore struct {
	dir     string
	urlPath string
}

// NewLocalStore 创建 LocalStore，urlPath 为空时使用 /static/uploads。
func NewLocalStore(dir, urlPath string) *LocalStore {
	urlPath = strings.TrimRight(strings.TrimSpace(urlPath), "/")
	if urlPath == "" {
		urlPath = "/static/uploads"
	}
	return &LocalStore{dir: dir, urlPath: urlPath}
}

// Dir 返回上传目录。
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save 以 日期-uuid.扩展名 的形式保存文件。
func (s *LocalStore) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}

	key := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), extensionFor(name, contentType))
	dst, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return Object{}, fmt.Errorf("create media file: %w", err)
	}

	written, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, key))
		return Object{}, fmt.Errorf("write media file: %w", err)
	}

	return Object{
		Key:         key,
		URL:         path.Join(s.urlPath, key),
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Delete 删除文件，文件不存在时视为成功。
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid media key %q", key)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
