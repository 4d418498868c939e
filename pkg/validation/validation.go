package validation

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vinodismyname/edamcp/pkg/pagination"
)

var (
	v    *validator.Validate
	once sync.Once
	mu   sync.Mutex
)

// Validator returns a singleton validator with custom rules registered.
// Field names in errors follow the json tag.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		// Local path or absolute http(s) URL.
		_ = v.RegisterValidation("fileref", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" || strings.ContainsRune(s, 0) {
				return false
			}
			if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
				u, err := url.Parse(s)
				return err == nil && u.Host != ""
			}
			return !strings.Contains(s, "://")
		})
		// Cursor must decode via pagination.DecodeCursor.
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
				return false
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
	})
	return v
}

// Register adds a custom tag owned by another package.
func Register(tag string, fn validator.Func) {
	mu.Lock()
	defer mu.Unlock()
	_ = Validator().RegisterValidation(tag, fn)
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "fileref":
				return "VALIDATION: file_path must be a local path or an http(s) URL"
			case "analysis_type":
				return fmt.Sprintf("VALIDATION: unsupported analysis_type %q; call list_analysis_types for supported values", fe.Value())
			case "cursor":
				return "CURSOR_INVALID: failed to decode cursor; restart from the first page"
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
