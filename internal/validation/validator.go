package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yukikurage/primecode/internal/constants"
)

var initOnce sync.Once

type lengthRule struct {
	min, max int
}

// lengthRules bound free-text fields by their trimmed rune count, since the
// services store them trimmed.
var lengthRules = map[string]lengthRule{
	"name":        {constants.MinNameLength, constants.MaxNameLength},
	"bio":         {0, constants.MaxBioLength},
	"title":       {constants.MinTitleLength, constants.MaxTitleLength},
	"description": {0, constants.MaxDescriptionLength},
	"tag":         {1, constants.MaxTagLength},
}

// Init configures the validator behind gin's binding:
// - errors are keyed by JSON field names
// - "password" requires 8+ chars with upper, lower case letters and a digit
// - name, bio, title, description and tag check trimmed length
func Init() {
	initOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("password", fmt.Sprintf(
			"min=%d,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=abcdefghijklmnopqrstuvwxyz,containsany=0123456789",
			constants.MinPasswordLength))
		for tag, rule := range lengthRules {
			_ = v.RegisterValidation(tag, trimmedLength(rule))
		}
	})
}

func trimmedLength(rule lengthRule) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		return n >= rule.min && n <= rule.max
	}
}

func formatLength(fe validator.FieldError, rule lengthRule) string {
	s, _ := fe.Value().(string)
	if utf8.RuneCountInString(strings.TrimSpace(s)) < rule.min {
		return fmt.Sprintf("must be at least %d characters long", rule.min)
	}
	return fmt.Sprintf("must be at most %d characters long", rule.max)
}

// ToDetails converts binding errors into a map[field]message for APIError.Errors.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) {
		return map[string]string{"payload": "invalid json"}
	}
	if errors.As(err, &ute) {
		if ute.Field != "" {
			return map[string]string{ute.Field: "has the wrong type"}
		}
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

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	if rule, ok := lengthRules[fe.Tag()]; ok {
		return formatLength(fe, rule)
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "password":
		return "must be at least 8 characters and include an uppercase letter, a lowercase letter and a number"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + param + " items"
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + param + " items"
		}
		return "must be at most " + param + " characters long"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "containsany":
		return "must contain at least one of '" + param + "'"
	}
	return "is invalid"
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
