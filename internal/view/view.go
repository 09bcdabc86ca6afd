// Package view 提供内嵌的 HTML 模板与模板函数。
package view

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap 返回模板可用的辅助函数。
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"join": strings.Join,
		// safeHTML 仅用于已经过 bluemonday 净化的内容
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"relativeTime": func(t time.Time) string {
			return FormatRelativeTime(time.Now(), t)
		},
	}
}

// Templates 解析全部内嵌模板。
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates 与 Templates 相同，解析失败时 panic。
func MustTemplates() *template.Template {
	tmpl, err := Templates()
	if err != nil {
		panic(err)
	}
	return tmpl
}

// FormatRelativeTime 将时间格式化为 "3h ago" 形式，零值返回空字符串。
func FormatRelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	case diff < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(diff/(30*24*time.Hour)))
	default:
		return fmt.Sprintf("%dy ago", int(diff/(365*24*time.Hour)))
	}
}
