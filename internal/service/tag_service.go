package service

import (
	"errors"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"gorm.io/gorm"
)

var ErrTagNotFound = errors.New("tag not found")

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签的使用次数
type TagUsage struct {
	ID    uint
	Name  string
	Count int64
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// Usage 返回标签及其关联的动态数量，按数量降序、名称升序排列。limit <= 0 表示不限制。
func (s *TagService) Usage(limit int) ([]TagUsage, error) {
	query := s.db.Table("tags").
		Select("tags.id, tags.name, COUNT(posts.id) AS count").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("JOIN posts ON posts.id = post_tags.post_id AND posts.deleted_at IS NULL").
		Where("tags.deleted_at IS NULL").
		Group("tags.id, tags.name").
		Order("count desc").
		Order("tags.name asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var usages []TagUsage
	if err := query.Scan(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

// FindByName 按名称查找标签，大小写不敏感。
func (s *TagService) FindByName(name string) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// resolveTags 在事务中查找或创建标签，保持输入顺序，大小写不同的同名标签复用已有记录。
func resolveTags(tx *gorm.DB, names []string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0, len(names))
	seen := make(map[uint]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		var tag db.Tag
		err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = db.Tag{Name: name}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return nil, err
		}

		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}
