package utils

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "device-manager/pkg/errors"
)

type HttpResponse struct {
	Status     bool        `json:"status"`
	Body       interface{} `json:"body,omitempty"`
	Message    string      `json:"message"`
	TotalCount *uint64     `json:"total_count,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, totalCount ...uint64) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(totalCount) > 0 {
		response.TotalCount = &totalCount[0]
	}
	return ctx.JSON(code, response)
}

// ErrorResponse превращает ошибку приложения в JSON-ответ.
// Внутренние детали пишутся в лог, клиенту уходит только сообщение.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.StatusCode(err)
	message := err.Error()

	var httpErr *apperrors.HttpError
	if stderrors.As(err, &httpErr) {
		message = httpErr.Message
		if httpErr.Err != nil && logger != nil {
			logger.Error("ошибка обработки запроса",
				zap.String("uri", ctx.Request().RequestURI),
				zap.Int("code", code),
				zap.Error(httpErr.Err),
			)
		}
	}

	var echoErr *echo.HTTPError
	if stderrors.As(err, &echoErr) {
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
	}

	if code == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("внутренняя ошибка сервера", zap.String("uri", ctx.Request().RequestURI), zap.Error(err))
		}
		message = "внутренняя ошибка сервера"
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
	})
}
