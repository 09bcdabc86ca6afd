package service

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// CaptionRenderer 将动态文案从 Markdown 渲染为安全的 HTML。
type CaptionRenderer struct {
	engine    goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewCaptionRenderer 创建渲染器：支持 GFM 与自动链接，换行保留为 <br>。
func NewCaptionRenderer() *CaptionRenderer {
	return &CaptionRenderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render 返回净化后的 HTML，渲染失败时退化为转义后的纯文本。
func (r *CaptionRenderer) Render(caption string) string {
	trimmed := strings.TrimSpace(caption)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(trimmed), &buf); err != nil {
		return template.HTMLEscapeString(trimmed)
	}
	return strings.TrimSpace(string(r.sanitizer.SanitizeBytes(buf.Bytes())))
}
