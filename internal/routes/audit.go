package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runAuditRouter(secureGroup *echo.Group, ctrl *controllers.AuditController) {
	{
		secureGroup.GET("/audit", ctrl.GetAuditLogs)
		secureGroup.GET("/devices/:id/audit", ctrl.GetDeviceAudit)
	}
}
