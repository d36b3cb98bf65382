package validation

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "device-manager/pkg/errors"
)

// EchoValidator адаптирует go-playground/validator под echo.Validator.
type EchoValidator struct {
	validator *validator.Validate
}

func NewEchoValidator(v *validator.Validate) *EchoValidator {
	registerNullTypes(v)
	return &EchoValidator{validator: v}
}

func (ev *EchoValidator) Validate(i interface{}) error {
	if err := ev.validator.Struct(i); err != nil {
		details := map[string]string{}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		return apperrors.NewHttpError(http.StatusUnprocessableEntity, "ошибка валидации данных", err, details)
	}
	return nil
}
