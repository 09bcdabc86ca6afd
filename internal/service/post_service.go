package service

import (
	"errors"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrForbidden       = errors.New("post belongs to another user")
	ErrCaptionRequired = errors.New("caption is required")
)

// PostService wraps post related database operations.
type PostService struct {
	db       *gorm.DB
	captions *CaptionRenderer
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Tag     string
	UserID  uint
	Page    int
	PerPage int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// PostInput represents fields accepted when creating or updating a post.
// Media 非空时替换现有媒体，为空时保留。
type PostInput struct {
	Caption  string
	Location string
	TagNames []string
	Media    []db.PostMedia
	UserID   uint
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB, captions *CaptionRenderer) *PostService {
	if captions == nil {
		captions = NewCaptionRenderer()
	}
	return &PostService{db: gdb, captions: captions}
}

// Get fetches a post by id with tags, media and author preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.withRelations(s.db).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create persists a post and associates tags in a transaction.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	caption := strings.TrimSpace(input.Caption)
	if caption == "" {
		return nil, ErrCaptionRequired
	}

	post := db.Post{
		Caption:     caption,
		CaptionHTML: s.captions.Render(caption),
		Location:    strings.TrimSpace(input.Location),
		UserID:      input.UserID,
		Media:       positioned(input.Media),
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return s.replaceTags(tx, &post, input.TagNames)
	}); err != nil {
		return nil, err
	}

	return s.Get(post.ID)
}

// Update applies updates to an existing post owned by input.UserID.
// 返回值包含被替换掉的旧媒体，便于调用方清理存储。
func (s *PostService) Update(id uint, input PostInput) (*db.Post, []db.PostMedia, error) {
	caption := strings.TrimSpace(input.Caption)
	if caption == "" {
		return nil, nil, ErrCaptionRequired
	}

	var replaced []db.PostMedia
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Post
		if err := tx.Preload("Media").First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if existing.UserID != input.UserID {
			return ErrForbidden
		}

		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"caption":      caption,
			"caption_html": s.captions.Render(caption),
			"location":     strings.TrimSpace(input.Location),
		}).Error; err != nil {
			return err
		}

		if len(input.Media) > 0 {
			replaced = existing.Media
			if err := tx.Where("post_id = ?", existing.ID).Delete(&db.PostMedia{}).Error; err != nil {
				return err
			}
			media := positioned(input.Media)
			for i := range media {
				media[i].PostID = existing.ID
			}
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}

		return s.replaceTags(tx, &existing, input.TagNames)
	})
	if err != nil {
		return nil, nil, err
	}

	post, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return post, replaced, nil
}

// Delete removes a post owned by userID and returns its media for cleanup.
func (s *PostService) Delete(id, userID uint) ([]db.PostMedia, error) {
	var media []db.PostMedia
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Preload("Media").First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if post.UserID != userID {
			return ErrForbidden
		}

		media = post.Media
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.PostMedia{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return media, nil
}

// List provides paginated posts, newest first.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	countQuery := s.applyFilters(s.db.Model(&db.Post{}), filter)
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	var posts []db.Post
	dataQuery := s.applyFilters(s.withRelations(s.db.Model(&db.Post{})), filter)
	if err := dataQuery.Order("posts.created_at desc, posts.id desc").Limit(result.PerPage).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Posts = posts
	return result, nil
}

func (s *PostService) withRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Tags").
		Preload("User").
		Preload("Media", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position asc, id asc")
		})
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.UserID != 0 {
		query = query.Where("posts.user_id = ?", filter.UserID)
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		subQuery := s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("LOWER(tags.name) = ?", strings.ToLower(tag))

		query = query.Where("posts.id IN (?)", subQuery)
	}

	return query
}

func (s *PostService) replaceTags(tx *gorm.DB, post *db.Post, names []string) error {
	tags, err := resolveTags(tx, names)
	if err != nil {
		return err
	}
	return tx.Model(post).Association("Tags").Replace(tags)
}

func positioned(media []db.PostMedia) []db.PostMedia {
	out := make([]db.PostMedia, len(media))
	for i, item := range media {
		item.ID = 0
		item.Position = i
		out[i] = item
	}
	return out
}
