package domain

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for request DTOs.
var validate = validator.New(validator.WithRequiredStructEnabled())
