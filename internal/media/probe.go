package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Info 是探测出的图片元信息。
type Info struct {
	ContentType string
	Width       int
	Height      int
}

// Probe 根据文件内容识别图片类型并读取像素尺寸。
func Probe(data []byte) (Info, error) {
	contentType := http.DetectContentType(data)
	if _, ok := extensionsByType[contentType]; !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: invalid dimensions", ErrUnsupportedType)
	}

	return Info{ContentType: contentType, Width: cfg.Width, Height: cfg.Height}, nil
}
