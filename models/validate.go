package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// runValidator runs struct-tag validation and converts the first failure
// into a ValidationError so callers only ever see the domain taxonomy.
func runValidator(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewValidationError(fe.Field(), "failed on the %q rule", fe.Tag())
	}
	return NewValidationError("", "%s", err.Error())
}
