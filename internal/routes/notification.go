package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runNotificationRouter(secureGroup *echo.Group, ctrl *controllers.NotificationController) {
	{
		secureGroup.GET("/notifications", ctrl.GetMyNotifications)
		secureGroup.GET("/notifications/unread-count", ctrl.UnreadCount)
		secureGroup.PUT("/notifications/:id/read", ctrl.MarkRead)
		secureGroup.PUT("/notifications/read-all", ctrl.MarkAllRead)
		secureGroup.DELETE("/notifications/:id", ctrl.DeleteNotification)
	}
}
