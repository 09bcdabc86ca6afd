package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/Stephan-mit-Ph/Social-App/internal/postform"
	"github.com/gin-gonic/gin"
)

// UploadImage 处理单张图片上传，返回可直接填入 media_url 的地址
func (a *API) UploadImage(c *gin.Context) {
	if a.store == nil {
		respondError(c, http.StatusServiceUnavailable, "media storage is not configured")
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}

	file, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read image")
		return
	}
	defer file.Close()

	obj, err := media.Upload(c.Request.Context(), a.store, fh.Filename, file, postform.MaxFileBytes)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			respondError(c, http.StatusUnsupportedMediaType, "only image files can be uploaded")
		case errors.Is(err, media.ErrTooLarge):
			respondError(c, http.StatusRequestEntityTooLarge, "image is too large")
		case errors.Is(err, media.ErrEmpty):
			respondError(c, http.StatusBadRequest, "image file is empty")
		default:
			log.Printf("[ERROR] upload image: %v", err)
			respondError(c, http.StatusInternalServerError, "failed to save image")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":          obj.URL,
		"key":          obj.Key,
		"content_type": obj.ContentType,
		"width":        obj.Width,
		"height":       obj.Height,
	})
}
