package main

import (
	"fmt"
	"log"

	"github.com/Stephan-mit-Ph/Social-App/internal/config"
	"github.com/Stephan-mit-Ph/Social-App/internal/db"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/Stephan-mit-Ph/Social-App/internal/service"
)

type seedUser struct {
	username string
	password string
}

type seedPost struct {
	author   string
	caption  string
	location string
	tags     string
	mediaURL string
}

var seedUsers = []seedUser{
	{username: "admin", password: "admin123"},
	{username: "testuser", password: "user123"},
}

var seedPosts = []seedPost{
	{
		author:   "admin",
		caption:  "First light over the harbour. Worth the **5am** alarm.",
		location: "Lisbon, Portugal",
		tags:     "sunrise, travel, harbour",
		mediaURL: "https://images.unsplash.com/photo-1523475472560-d2df97ec485c?auto=format&fit=crop&w=1600&q=80",
	},
	{
		author:   "admin",
		caption:  "Trying out the new espresso place around the corner.",
		location: "Porto",
		tags:     "coffee, morning",
		mediaURL: "https://images.unsplash.com/photo-1517430816045-df4b7de11d1d?auto=format&fit=crop&w=1600&q=80",
	},
	{
		author:   "testuser",
		caption:  "Weekend hike, 18km and zero regrets.\nLegs disagree.",
		location: "Sintra",
		tags:     "hiking, outdoors, Travel",
		mediaURL: "https://images.unsplash.com/photo-1523473827534-86c23bcb06b1?auto=format&fit=crop&w=1350&q=80",
	},
	{
		author:   "testuser",
		caption:  "Desk setup, finally cable managed. https://example.com/setup",
		location: "Home office",
		tags:     "workspace, tech",
		mediaURL: "https://images.unsplash.com/photo-1518770660439-4636190af475?auto=format&fit=crop&w=1600&q=80",
	},
}

// 测试数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	if err := createTestUsers(); err != nil {
		log.Fatal("创建测试用户失败:", err)
	}

	created, err := createTestPosts()
	if err != nil {
		log.Fatal("创建测试动态失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123), testuser (密码: user123)")
	fmt.Printf("动态: %d 条\n", created)
}

// 创建测试用户
func createTestUsers() error {
	for _, u := range seedUsers {
		if err := db.EnsureUser(db.DB, u.username, u.password); err != nil {
			return err
		}
	}
	fmt.Println("✅ 测试用户创建完成")
	return nil
}

// 创建测试动态；标签与表单提交走同样的规范化规则。
func createTestPosts() (int, error) {
	var count int64
	if err := db.DB.Model(&db.Post{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		fmt.Println("动态已存在，跳过创建")
		return 0, nil
	}

	users := make(map[string]uint, len(seedUsers))
	var all []db.User
	if err := db.DB.Find(&all).Error; err != nil {
		return 0, err
	}
	for _, u := range all {
		users[u.Username] = u.ID
	}

	posts := service.NewPostService(db.DB, nil)
	created := 0
	for _, item := range seedPosts {
		authorID, ok := users[item.author]
		if !ok {
			return created, fmt.Errorf("seed author %q not found", item.author)
		}

		draft := postform.Draft{Caption: item.caption, Location: item.location, Tags: item.tags, MediaURL: item.mediaURL}
		if result := postform.Validate(draft); !result.OK() {
			return created, fmt.Errorf("seed post %q is invalid: %v", item.caption, result.ByField())
		}

		if _, err := posts.Create(service.PostInput{
			Caption:  item.caption,
			Location: item.location,
			TagNames: postform.NormalizeTags(item.tags),
			Media:    []db.PostMedia{{URL: item.mediaURL}},
			UserID:   authorID,
		}); err != nil {
			return created, err
		}
		created++
	}

	fmt.Println("✅ 测试动态创建完成")
	return created, nil
}
