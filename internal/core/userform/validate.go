package userform

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/phone"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// checks lists the rules in the order they are reported; the first failing
// field wins.
type checks struct {
	FullName        string  `json:"full_name" validate:"required"`
	Creating        bool    `json:"-"`
	Username        string  `json:"username" validate:"required_if=Creating true"`
	Role            *string `json:"role" validate:"omitnil,role"`
	Password        string  `json:"password" validate:"omitempty,min=6"`
	Email           string  `json:"email" validate:"omitempty,emailshape"`
	AdditionalEmail string  `json:"additional_email" validate:"omitempty,emailshape"`
	Phone           string  `json:"phone" validate:"omitempty,phone"`
}

var rules = newRules()

func newRules() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phone.Valid(fl.Field().String())
	})
	return v
}

// validate fails fast with a single message. The phone and role checks only
// apply to values that are being sent.
func validate(v Values, mode Mode, checkPhone, checkRole bool) error {
	c := checks{
		FullName:        strings.TrimSpace(v.FullName),
		Creating:        mode == Creating,
		Username:        strings.TrimSpace(v.Username),
		Password:        v.Password,
		Email:           strings.TrimSpace(v.Email),
		AdditionalEmail: strings.TrimSpace(v.AdditionalEmail),
	}
	if checkPhone {
		c.Phone = v.Phone
	}
	if checkRole {
		role := string(v.Role)
		c.Role = &role
	}

	err := rules.Struct(c)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &domain.ValidationError{Message: message(ve[0])}
	}
	return err
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "emailshape":
		return field + " must be a valid email"
	case "phone":
		return field + " must be a valid phone number"
	case "role":
		return field + " must be one of admin, moderator or user"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
