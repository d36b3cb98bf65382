package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-manager/internal/dto"
	"device-manager/internal/services"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/utils"
)

type DeviceController struct {
	deviceService services.DeviceServiceInterface
	logger        *zap.Logger
}

func NewDeviceController(deviceService services.DeviceServiceInterface, logger *zap.Logger) *DeviceController {
	return &DeviceController{
		deviceService: deviceService,
		logger:        logger,
	}
}

func parseIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewBadRequestError("некорректный id в пути запроса")
	}
	return id, nil
}

func (c *DeviceController) GetDevices(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, err := c.deviceService.GetDevices(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res.List, "Устройства успешно получены", http.StatusOK, res.TotalCount)
}

// GetPendingApproval — устройства в статусе Done, ожидающие приёмки менеджером.
func (c *DeviceController) GetPendingApproval(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	filter.Filter["waiting_approval"] = "true"

	res, err := c.deviceService.GetDevices(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res.List, "Устройства на приёмке успешно получены", http.StatusOK, res.TotalCount)
}

// GetMyTasks — устройства, назначенные технику текущего пользователя.
func (c *DeviceController) GetMyTasks(ctx echo.Context) error {
	res, err := c.deviceService.GetMyTasks(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res.List, "Задачи техника успешно получены", http.StatusOK, res.TotalCount)
}

func (c *DeviceController) FindDevice(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.deviceService.FindDevice(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Устройство успешно получено", http.StatusOK)
}

func (c *DeviceController) CreateDevice(ctx echo.Context) error {
	var payload dto.CreateDeviceDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Error("CreateDevice: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.deviceService.CreateDevice(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, echo.Map{"id": id}, "Устройство успешно создано", http.StatusCreated)
}

func (c *DeviceController) UpdateDevice(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateDeviceDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.deviceService.UpdateDevice(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Устройство успешно обновлено", http.StatusOK)
}

func (c *DeviceController) AssignDevice(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.AssignDeviceDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.deviceService.AssignDevice(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Назначение устройства обновлено", http.StatusOK)
}

func (c *DeviceController) UpdateDueDate(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateDueDateDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.deviceService.UpdateDueDate(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Срок устройства обновлён", http.StatusOK)
}

func (c *DeviceController) UpdateWorkStatus(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateWorkStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Неверный формат данных"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.deviceService.UpdateWorkStatus(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Статус работы обновлён", http.StatusOK)
}

func (c *DeviceController) ApproveDevice(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.deviceService.ApproveDevice(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Работа подтверждена менеджером", http.StatusOK)
}

func (c *DeviceController) DeleteDevice(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.deviceService.DeleteDevice(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Устройство успешно удалено", http.StatusOK)
}

func (c *DeviceController) GetDeviceTypes(ctx echo.Context) error {
	types, err := c.deviceService.GetDeviceTypes(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, types, "Типы устройств успешно получены", http.StatusOK)
}

func (c *DeviceController) GetDeviceHistory(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	history, err := c.deviceService.GetDeviceHistory(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, history, "История устройства успешно получена", http.StatusOK)
}
