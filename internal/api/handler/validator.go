package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/blumenhaus/flora-shop/internal/client/validation"
	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call
// c.Validate(req). Failures come back as domain.FieldErrors, which the
// central error handler renders as a 400 with a per-field details map.
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator with the flora-shop custom tags
// registered, ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	v := validator.New()
	validation.RegisterCustomTags(v)
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fe := make(domain.FieldErrors, len(ve))
	for _, f := range ve {
		field := strings.ToLower(f.Field())
		if _, taken := fe[field]; !taken {
			fe[field] = validation.FieldMessage(f)
		}
	}
	return fe
}
