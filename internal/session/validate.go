package session

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"storefront/internal/domain"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength and MinNameLength bound the login and registration forms
const (
	MinPasswordLength = 6
	MinNameLength     = 2
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	// the form rule is looser than validator's RFC email check
	if err := validate.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

type loginForm struct {
	Email    string `form:"email" validate:"required,mailbox"`
	Password string `form:"password" validate:"required,min=6"`
}

type registrationForm struct {
	Name     string `form:"name" validate:"required,min=2"`
	Email    string `form:"email" validate:"required,mailbox"`
	Password string `form:"password" validate:"required,min=6"`
	Confirm  string `form:"confirm" validate:"eqfield=Password"`
}

// FieldErrors maps a form field to the reason it was rejected
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e FieldErrors) Is(target error) bool {
	return target == domain.ErrValidation
}

// ValidateLogin checks the login form. It returns nil or FieldErrors.
func ValidateLogin(email, password string) error {
	return check(loginForm{Email: strings.TrimSpace(email), Password: password})
}

// ValidateRegistration checks the registration form. The name is trimmed
// before its length is checked.
func ValidateRegistration(name, email, password, confirm string) error {
	return check(registrationForm{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
		Confirm:  confirm,
	})
}

func check(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "mailbox":
		return "is not a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "eqfield":
		return "does not match the password"
	default:
		return "is invalid"
	}
}
