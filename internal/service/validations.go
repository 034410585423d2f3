package service

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/pkg/entity"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("traffic_status", func(fl validator.FieldLevel) bool {
			return entity.Status(fl.Field().String()).Valid()
		})
	})
}

// validateStruct runs the validator and folds field errors into a
// single ErrValidation so callers can errors.Is on the kind.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		joined := errorvalues.ErrValidation
		for _, fieldErr := range fieldErrs {
			joined = errors.Join(joined, fieldErr)
		}
		return joined
	}
	return errors.New("validation unexpected error: " + err.Error())
}
