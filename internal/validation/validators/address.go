package validators

import (
	"github.com/go-playground/validator/v10"

	"github.com/sergeii/mcscan/internal/core/entities/addr"
)

// ValidateAddress accepts a bare host or a host:port pair
func ValidateAddress(fl validator.FieldLevel) bool {
	_, err := addr.Parse(fl.Field().String())
	return err == nil
}
