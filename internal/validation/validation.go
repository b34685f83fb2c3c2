// Package validation runs the synchronous, local checks every form performs
// before anything is sent to the Admin API, and maps server-side validation
// failures back onto the same per-field slots.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	ReferencePrefix    = "TREEGAR-"
	ReferenceMinLength = 16
	PasswordMinLength  = 8

	// GenericMessage is shown when a failure carries no usable server message.
	GenericMessage = "Something went wrong. Please try again."
)

var ErrInvalid = errors.New("validation failed")

// Error carries per-field messages plus an optional general banner message.
type Error struct {
	Fields  map[string]string
	General string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		if e.General != "" {
			return e.General
		}
		return ErrInvalid.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Field returns the message for one slot, or "".
func (e *Error) Field(name string) string { return e.Fields[name] }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	mustRegister(v, "treegarref", func(fl validator.FieldLevel) bool {
		return ValidReference(fl.Field().String())
	})
	return v
}

// mustRegister panics at init: a missing custom tag fails every DTO using it.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Struct validates a request DTO using its `validate` tags. It returns nil or *Error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "password":
		return fmt.Sprintf("Password must be at least %d characters and include upper case, lower case and a digit", PasswordMinLength)
	case "treegarref":
		return fmt.Sprintf("%s must start with %s and be at least %d characters", label, ReferencePrefix, ReferenceMinLength)
	case "numeric":
		return label + " must contain digits only"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, fe.Param())
	}
	return label + " is invalid"
}

// Label turns a json field name such as "firstName" into "First name".
func Label(field string) string {
	if field == "" {
		return field
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPassword requires PasswordMinLength characters with an upper case
// letter, a lower case letter and a digit.
func ValidPassword(s string) bool {
	if len([]rune(s)) < PasswordMinLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// ValidReference checks an external reference code: fixed prefix and minimum length.
func ValidReference(s string) bool {
	return strings.HasPrefix(s, ReferencePrefix) && len(s) >= ReferenceMinLength
}
