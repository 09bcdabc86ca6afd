package postform

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Stephan-mit-Ph/Social-App/internal/media"
	"github.com/go-playground/validator/v10"
)

// 字段约束，与前端表单的提示保持一致。
const (
	CaptionMinRunes  = 5
	CaptionMaxRunes  = 2200
	LocationMaxRunes = 1000
	MaxFiles         = 10
	MaxFileBytes     = 10 << 20
	MaxTags          = 30
	TagMaxRunes      = 50
)

// FieldError 是单个字段的校验失败信息。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult 汇总一次校验的结果，Errors 为空表示通过。
type ValidationResult struct {
	Errors []FieldError `json:"errors"`
}

// OK 表示所有字段均通过校验。
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// ByField 返回每个字段的第一条错误信息，便于模板渲染。
func (r ValidationResult) ByField() map[string]string {
	messages := make(map[string]string, len(r.Errors))
	for _, fe := range r.Errors {
		if _, exists := messages[fe.Field]; exists {
			continue
		}
		messages[fe.Field] = fe.Message
	}
	return messages
}

type fileFields struct {
	ContentType string `form:"type" validate:"imagetype"`
	Size        int64  `form:"size" validate:"gt=0,filesize"`
}

type draftFields struct {
	Caption  string       `form:"caption" validate:"required,min=5,max=2200"`
	Files    []fileFields `form:"file" validate:"max=10,dive"`
	Location string       `form:"location" validate:"required,max=1000"`
	Tags     []string     `form:"tags" validate:"max=30,dive,max=50,excludesall=#<>"`
}

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("imagetype", func(fl validator.FieldLevel) bool {
		return media.SupportedType(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("filesize", func(fl validator.FieldLevel) bool {
		size := fl.Field().Int()
		return size <= MaxFileBytes
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate 校验草稿字段，不产生任何副作用。
func Validate(d Draft) ValidationResult {
	fields := draftFields{
		Caption:  strings.TrimSpace(d.Caption),
		Location: strings.TrimSpace(d.Location),
		Tags:     NormalizeTags(d.Tags),
	}
	for _, file := range d.Files {
		fields.Files = append(fields.Files, fileFields{ContentType: file.ContentType, Size: file.Size})
	}

	err := draftValidator.Struct(fields)
	if err == nil {
		return ValidationResult{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationResult{Errors: []FieldError{{Field: "form", Message: err.Error()}}}
	}

	result := ValidationResult{}
	seen := make(map[FieldError]struct{}, len(verrs))
	for _, fe := range verrs {
		field, element := splitNamespace(fe.Namespace())
		item := FieldError{Field: field, Message: messageFor(field, element, fe)}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		result.Errors = append(result.Errors, item)
	}
	return result
}

// splitNamespace 从 "draftFields.file[0].type" 中取出顶层字段名，并标记是否为元素级错误。
func splitNamespace(namespace string) (string, bool) {
	parts := strings.SplitN(namespace, ".", 3)
	if len(parts) < 2 {
		return namespace, false
	}
	top := parts[1]
	if idx := strings.IndexByte(top, '['); idx >= 0 {
		return top[:idx], true
	}
	return top, false
}

func messageFor(field string, element bool, fe validator.FieldError) string {
	switch field {
	case "caption":
		switch fe.Tag() {
		case "required":
			return "Caption is required."
		case "min":
			return fmt.Sprintf("Caption must be at least %d characters.", CaptionMinRunes)
		case "max":
			return fmt.Sprintf("Caption must be at most %d characters.", CaptionMaxRunes)
		}
	case "location":
		switch fe.Tag() {
		case "required":
			return "Location is required."
		case "max":
			return fmt.Sprintf("Location must be at most %d characters.", LocationMaxRunes)
		}
	case "file":
		switch fe.Tag() {
		case "max":
			return fmt.Sprintf("At most %d photos can be attached.", MaxFiles)
		case "imagetype":
			return "Only JPEG, PNG, GIF, WebP or BMP images can be attached."
		case "gt":
			return "Photos cannot be empty."
		case "filesize":
			return fmt.Sprintf("Each photo must be at most %d MB.", MaxFileBytes>>20)
		}
	case "tags":
		switch {
		case fe.Tag() == "max" && !element:
			return fmt.Sprintf("At most %d tags are allowed.", MaxTags)
		case fe.Tag() == "max":
			return fmt.Sprintf("Each tag must be at most %d characters.", TagMaxRunes)
		case fe.Tag() == "excludesall":
			return "Tags cannot contain '#', '<' or '>'."
		}
	}
	return fmt.Sprintf("%s is invalid.", field)
}
