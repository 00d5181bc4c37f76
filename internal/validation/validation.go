package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/sergeii/mcscan/internal/validation/validators"
)

func New() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("mcaddr", validators.ValidateAddress); err != nil {
		return nil, err
	}
	return validate, nil
}

func MustNew() *validator.Validate {
	validate, err := New()
	if err != nil {
		panic(err)
	}
	return validate
}
