package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 7

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// The word is rejected in any letter case.
	if err := v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	}); err != nil {
		panic(err)
	}
	return v
}

type profileFields struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=0"`
}

type taskFields struct {
	Description string `json:"description" validate:"required,min=1"`
	Owner       string `json:"owner" validate:"required"`
}

// ValidateProfile checks the name, email and age of u. Callers normalize
// before validating.
func ValidateProfile(u *User) error {
	return fromValidator(validate.Struct(profileFields{Name: u.Name, Email: u.Email, Age: u.Age}))
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	err := validate.Var(password, fmt.Sprintf("required,min=%d,nopassword", MinPasswordLength))
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: password %s", ErrValidation, describe(verrs[0]))
	}
	return err
}

// ValidateTask checks a task before it is written.
func ValidateTask(t *Task) error {
	return fromValidator(validate.Struct(taskFields{Description: t.Description, Owner: t.Owner}))
}

func fromValidator(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" "+describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gte":
		return "must be a positive number"
	case "nopassword":
		return `cannot contain "password"`
	default:
		return "failed " + fe.Tag()
	}
}
