package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var (
	std     *validator.Validate
	stdOnce sync.Once
)

// configure registers tag-name and custom rules on v.
// - Uses JSON tag names in errors.
// - nopassword rejects values containing "password" in any letter case.
// - pwbytes caps a password at what bcrypt will hash (counted in bytes).
// - userpwd is the account password rule.
func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	v.RegisterAlias("userpwd", "min=7,nopassword,pwbytes")
}

// Validator returns the shared validator used by the application services.
func Validator() *validator.Validate {
	stdOnce.Do(func() {
		std = validator.New(validator.WithRequiredStructEnabled())
		configure(std)
	})
	return std
}

// Struct validates s and returns per-field messages, or nil when s is valid.
func Struct(s any) map[string]string {
	if err := Validator().Struct(s); err != nil {
		return ToDetails(err)
	}
	return nil
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		if ute.Field != "" {
			return map[string]string{ute.Field: "must be a " + jsonKind(ute.Type)}
		}
		return map[string]string{"payload": "invalid json"}
	}
	if errors.As(err, &se) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	// Fallback
	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.ActualTag()
	param := fe.Param()

	switch tag {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email"
	case "nopassword":
		return `must not contain "password"`
	case "pwbytes":
		return fmt.Sprintf("must be at most %d bytes long", MaxPasswordBytes)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		if param == "0" {
			return "must be a positive number"
		}
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "valid value"
	}
	switch {
	case t.Kind() == reflect.String:
		return "string"
	case t.Kind() == reflect.Bool:
		return "boolean"
	case isNumberKind(t.Kind()):
		return "number"
	}
	return "valid value"
}
