package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = errors.New("неверный метод подписи токена")
	ErrInvalidToken         = errors.New("недопустимый токен")
	ErrTokenExpired         = errors.New("срок действия токена истёк")
	ErrTokenIsNotRefresh    = errors.New("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = errors.New("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = errors.New("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = errors.New("неверный формат заголовка авторизации")
	ErrInvalidCredentials = errors.New("неверные учётные данные")
	ErrUnauthorized       = errors.New("неавторизован")
	ErrForbidden          = errors.New("доступ запрещён")

	// Контекст
	ErrUserNotFound  = errors.New("пользователь не найден")
	ErrInvalidUserID = errors.New("недопустимый UserID")

	// Общие
	ErrNotFound   = errors.New("запись не найдена")
	ErrBadRequest = errors.New("неверный запрос")
)

// HttpError несёт HTTP-статус вместе с сообщением для клиента.
// Внутренняя причина (Err) попадает только в логи, не в ответ.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details map[string]string
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details map[string]string) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// StatusCode подбирает HTTP-статус для произвольной ошибки приложения.
func StatusCode(err error) int {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrEmptyAuthHeader),
		errors.Is(err, ErrInvalidAuthHeader),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenIsNotRefresh),
		errors.Is(err, ErrTokenIsNotAccess):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidUserID):
		return http.StatusBadRequest
	}

	var invalidInput *InvalidInputError
	if errors.As(err, &invalidInput) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// NewBadRequestError — ошибка разбора запроса (тело, путь, query).
func NewBadRequestError(format string, args ...interface{}) error {
	return NewHttpError(http.StatusBadRequest, fmt.Sprintf(format, args...), nil, nil)
}

// InvalidInputError — ошибка валидации пользовательского ввода.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
