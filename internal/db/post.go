package db

import (
	"strings"

	"gorm.io/gorm"
)

// Post 定义了社交动态模型
type Post struct {
	gorm.Model
	Caption     string `gorm:"type:text;not null"`
	CaptionHTML string `gorm:"type:text"`
	Location    string
	UserID      uint `gorm:"index"`
	User        User
	Media       []PostMedia `gorm:"constraint:OnDelete:CASCADE;"`
	Tags        []Tag       `gorm:"many2many:post_tags;"`
}

// TagNames 返回按存储顺序排列的标签名称。
func (p Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// MediaURLs 返回按 Position 排序后的媒体地址。
func (p Post) MediaURLs() []string {
	ordered := SortMedia(p.Media)
	urls := make([]string, 0, len(ordered))
	for _, item := range ordered {
		if item.URL == "" {
			continue
		}
		urls = append(urls, item.URL)
	}
	return urls
}

// CoverURL 返回第一张媒体的地址，没有媒体时为空字符串。
func (p Post) CoverURL() string {
	urls := p.MediaURLs()
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
