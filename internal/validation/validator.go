// Package validation checks form payloads with go-playground/validator and
// converts failures into field-keyed domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/go-playground/validator/v10"
)

// acronyms are field words rendered in upper case in messages.
var acronyms = map[string]string{
	"sku": "SKU",
	"url": "URL",
}

// Validator wraps go-playground/validator with domain error conversion.
// It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct. Failures are returned as a
// *domain.ValidationError tagged with op; other errors pass through.
func (v *Validator) Validate(op string, s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(validationErrs))}
	for _, e := range validationErrs {
		// Keep the first failure per field
		if _, ok := ve.Fields[e.Field()]; ok {
			continue
		}
		ve.Fields[e.Field()] = friendlyMessage(e)
	}
	return ve
}

func friendlyMessage(e validator.FieldError) string {
	label := Label(e.Field())

	switch e.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", label, e.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", label, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, e.Param())
	case "url":
		return label + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, e.Param())
	default:
		return label + " is invalid"
	}
}

// Label turns a JSON field name into the label used in messages:
// "categoryId" becomes "Category", "altText" becomes "Alt text".
func Label(field string) string {
	var words []string
	start := 0
	runes := []rune(field)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
			words = append(words, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}
	words = append(words, strings.ToLower(string(runes[start:])))

	if len(words) > 1 && words[len(words)-1] == "id" {
		words = words[:len(words)-1]
	}
	for i, w := range words {
		if a, ok := acronyms[w]; ok {
			words[i] = a
		}
	}

	first := []rune(words[0])
	first[0] = unicode.ToUpper(first[0])
	words[0] = string(first)
	return strings.Join(words, " ")
}
