package db

import (
	"sort"

	"gorm.io/gorm"
)

// PostMedia 记录动态附带的图片。
type PostMedia struct {
	gorm.Model
	PostID      uint   `gorm:"index"`
	URL         string `gorm:"not null"`
	ObjectKey   string
	ContentType string
	Width       int
	Height      int
	Position    int
}

// TableName 指定自定义表名。
func (PostMedia) TableName() string {
	return "post_media"
}

// SortMedia 返回按 Position、ID 升序排列的副本。
func SortMedia(items []PostMedia) []PostMedia {
	ordered := make([]PostMedia, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
