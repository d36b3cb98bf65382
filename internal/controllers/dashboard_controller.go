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

type DashboardController struct {
	dashboardService services.DashboardServiceInterface
	logger           *zap.Logger
}

func NewDashboardController(dashboardService services.DashboardServiceInterface, logger *zap.Logger) *DashboardController {
	return &DashboardController{dashboardService: dashboardService, logger: logger}
}

func (c *DashboardController) GetOverview(ctx echo.Context) error {
	res, err := c.dashboardService.GetOverview(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Сводка успешно получена", http.StatusOK)
}

func (c *DashboardController) ToggleOverride(ctx echo.Context) error {
	var payload dto.ToggleOverrideDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	state, err := c.dashboardService.ToggleOverride(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	message := "Режим Admin Override выключен"
	if state.Enabled {
		message = "Режим Admin Override включён"
	}
	return utils.SuccessResponse(ctx, state, message, http.StatusOK)
}
