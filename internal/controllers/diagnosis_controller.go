package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-manager/internal/dto"
	"device-manager/internal/services"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/utils"
)

type DiagnosisController struct {
	diagnosisService services.DiagnosisServiceInterface
	logger           *zap.Logger
}

func NewDiagnosisController(diagnosisService services.DiagnosisServiceInterface, logger *zap.Logger) *DiagnosisController {
	return &DiagnosisController{
		diagnosisService: diagnosisService,
		logger:           logger,
	}
}

func (c *DiagnosisController) GetByDevice(ctx echo.Context) error {
	deviceID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	list, err := c.diagnosisService.GetByDevice(ctx.Request().Context(), deviceID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, list, "Диагнозы успешно получены", http.StatusOK)
}

func (c *DiagnosisController) CreateDiagnosis(ctx echo.Context) error {
	deviceID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreateDiagnosisDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateDiagnosis: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.diagnosisService.CreateDiagnosis(ctx.Request().Context(), deviceID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, echo.Map{"id": id}, "Диагноз успешно добавлен", http.StatusCreated)
}

func (c *DiagnosisController) UpdateDiagnosis(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateDiagnosisDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.diagnosisService.UpdateDiagnosis(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Диагноз успешно обновлён", http.StatusOK)
}

func (c *DiagnosisController) DeleteDiagnosis(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.diagnosisService.DeleteDiagnosis(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Диагноз успешно удалён", http.StatusOK)
}
