package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-manager/internal/services"
	"device-manager/pkg/utils"
)

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationController(notificationService services.NotificationServiceInterface, logger *zap.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		logger:              logger,
	}
}

func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, err := c.notificationService.GetMyNotifications(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Уведомления успешно получены", http.StatusOK, res.TotalCount)
}

func (c *NotificationController) UnreadCount(ctx echo.Context) error {
	count, err := c.notificationService.UnreadCount(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, echo.Map{"unread_count": count}, "Счётчик непрочитанных получен", http.StatusOK)
}

func (c *NotificationController) MarkRead(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.notificationService.MarkRead(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Уведомление отмечено прочитанным", http.StatusOK)
}

func (c *NotificationController) MarkAllRead(ctx echo.Context) error {
	if err := c.notificationService.MarkAllRead(ctx.Request().Context()); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Все уведомления отмечены прочитанными", http.StatusOK)
}

func (c *NotificationController) DeleteNotification(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.notificationService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Уведомление удалено", http.StatusOK)
}
