package dto

import (
	"ledger-service/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("handle", validateHandle)
	}
}

// validateHandle applies the account handle rules to a string field.
func validateHandle(fl validator.FieldLevel) bool {
	return domain.ValidHandle(fl.Field().String())
}
