// Package validation checks person fields before they reach the store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/leca/loqed-births/internal/apperr"
)

// DateLayout is the accepted birth date format.
const DateLayout = "2006-01-02"

var nameRegex = regexp.MustCompile(`^\p{L}[\p{L}\p{M} .'-]*$`)

// PersonInput holds the user-editable fields of a person.
type PersonInput struct {
	Name      string `json:"nome" validate:"required,max=100,personname"`
	BirthDate string `json:"data_nascimento" validate:"required,birthdate"`
}

// Validator wraps the go-playground validator with the registry rules.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Validator. now is used to reject birth dates in the future;
// nil means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.validate.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return nameRegex.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("birthdate", v.validBirthDate)

	return v
}

func (v *Validator) validBirthDate(fl validator.FieldLevel) bool {
	d, err := time.Parse(DateLayout, fl.Field().String())
	if err != nil {
		return false
	}
	return d.Year() >= 1900 && !d.After(v.now())
}

// Person validates a complete input.
func (v *Validator) Person(in PersonInput) error {
	return v.wrap(v.validate.Struct(in))
}

// Name validates a single name.
func (v *Validator) Name(name string) error {
	return v.wrap(v.validate.Var(name, "required,max=100,personname"), "nome")
}

// BirthDate validates a single birth date.
func (v *Validator) BirthDate(date string) error {
	return v.wrap(v.validate.Var(date, "required,birthdate"), "data_nascimento")
}

// wrap turns validator errors into an apperr validation error with one
// message per field.
func (v *Validator) wrap(err error, field ...string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindValidation, "invalid input", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" && len(field) > 0 {
			name = field[0]
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", name, describe(fe)))
	}
	return apperr.New(apperr.KindValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "personname":
		return "must contain only letters, spaces, apostrophes, dots or hyphens"
	case "birthdate":
		return "must be a past date in YYYY-MM-DD format, not before 1900"
	default:
		return "is invalid"
	}
}
