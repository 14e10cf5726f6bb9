package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"gymhub/internal/apperror"

	"github.com/go-playground/validator/v10"
)

// Field rules for user identities.
const (
	usernameRule     = "required,min=3,max=30,username"
	emailRule        = "required,email,max=254"
	passwordMinRule  = "required,min=8"
	PasswordMaxBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validation messages, one per field.
const (
	msgInvalidUsername = "username must be 3-30 characters of letters, digits and underscores"
	msgInvalidEmail    = "email must be a valid email address"
	msgShortPassword   = "password must be at least 8 characters"
	msgLongPassword    = "password must be at most 72 bytes"
)

// newValidator returns a validator that reports json field names and knows
// the username rule.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

func validateUsername(v *validator.Validate, username string) error {
	if err := v.Var(username, usernameRule); err != nil {
		return apperror.Validation("username", msgInvalidUsername)
	}
	return nil
}

func validateEmail(v *validator.Validate, email string) error {
	if err := v.Var(email, emailRule); err != nil {
		return apperror.Validation("email", msgInvalidEmail)
	}
	return nil
}

// validatePassword counts characters for the minimum and bytes for the
// maximum, which is where bcrypt stops reading.
func validatePassword(v *validator.Validate, password string) error {
	if err := v.Var(password, passwordMinRule); err != nil {
		return apperror.Validation("password", msgShortPassword)
	}
	if len(password) > PasswordMaxBytes {
		return apperror.Validation("password", msgLongPassword)
	}
	return nil
}

// validateStruct runs the struct's validate tags and reports the first
// failing field.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.Validation(fe.Field(), fieldMessage(fe))
	}
	return apperror.Validation("", "invalid input")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	}
	return fe.Field() + " is invalid"
}
