package account

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

var simpleEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Username        string `json:"username" validate:"notblank,min=3"`
	Email           string `json:"email" validate:"notblank,simpleemail"`
	Password        string `json:"password" validate:"notblank,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// LoginRequest is the sign-in form
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	// Registration only fails on an empty tag name or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return simpleEmailRegex.MatchString(fl.Field().String())
	})
	return v
}

// validateForm runs struct validation and converts the result into a
// field-keyed ValidationError.
func validateForm(v *validator.Validate, form interface{}) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return newValidationError(ErrInvalidInput, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "simpleemail":
		return "must be a valid email address"
	case "eqfield":
		return "passwords do not match"
	default:
		return fmt.Sprintf("%s is not valid", fe.Field())
	}
}
