package validate

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/5w1tchy/shelf-api/internal/models"
)

var ErrInvalid = errors.New("invalid")

var v *validator.Validate

func init() {
	v = validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return models.Genre(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && math.Mod(f*2, 1) == 0
	})
	_ = v.RegisterValidation("coverurl", func(fl validator.FieldLevel) bool {
		return CoverURL(fl.Field().String())
	})
}

// FieldError is one rejected field, keyed by its JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Struct validates s against its `validate` tags. It returns nil when s is valid.
func Struct(s any) []FieldError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Code: "invalid", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Code: fe.Tag(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, param)
	case "genre":
		return field + " is not a known genre"
	case "status":
		return field + " is not a known reading status"
	case "halfstep":
		return field + " must be a multiple of 0.5"
	case "coverurl":
		return fmt.Sprintf("%s must be an http(s) URL of at most %d characters", field, models.MaxCoverURLLen)
	default:
		return field + " is invalid"
	}
}

// CoverURL accepts "" (no cover) or an absolute http(s) URL within the length cap.
func CoverURL(s string) bool {
	if s == "" {
		return true
	}
	if utf8.RuneCountInString(s) > models.MaxCoverURLLen {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// RequireBounded trims and ensures length bounds.
func RequireBounded(name, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < min || utf8.RuneCountInString(s) > max {
		return "", errors.New(name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters")
	}
	return s, nil
}

// ClampLimit parses a page size, falling back to def outside [1, max].
func ClampLimit(raw string, def, max int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 1 && n <= max {
		return n
	}
	return def
}
