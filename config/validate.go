package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// validateStruct runs struct-tag validation and flattens the result into a
// single readable error.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required", fe.Field())
		case "url":
			return fmt.Errorf("%s must be a valid URL, got %q", fe.Field(), fe.Value())
		default:
			return fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())
		}
	}
	return err
}
