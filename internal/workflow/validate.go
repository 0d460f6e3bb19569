package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/josephgoksu/StoryWing/internal/story"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// Empty is allowed; callers apply the default.
	_ = validate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, ok := story.ParsePriority(s)
		return ok
	})
	_ = validate.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, ok := story.ParseStatus(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("size", func(fl validator.FieldLevel) bool {
		_, ok := story.ParseSize(fl.Field().String())
		return ok
	})
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// validateRequest checks a request struct and returns an InvalidRequest
// error listing every failed field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return InvalidRequest("invalid request: %v", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := formatValidationError(fe)
		fields = append(fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: msg})
		msgs = append(msgs, msg)
	}
	e := InvalidRequest("%s", strings.Join(msgs, "; "))
	e.Details = map[string]any{"fields": fields}
	return e
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "nonempty":
		return fmt.Sprintf("%s cannot be empty or whitespace", err.Field())
	case "priority":
		return fmt.Sprintf("%s must be one of: low medium high critical", err.Field())
	case "status":
		return fmt.Sprintf("%s must be one of: pending in_progress completed deleted", err.Field())
	case "size":
		return fmt.Sprintf("%s must be one of: small medium large xlarge", err.Field())
	case "min":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", err.Field())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
	}
}
