package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runDashboardRouter(secureGroup *echo.Group, ctrl *controllers.DashboardController) {
	{
		secureGroup.GET("/dashboard", ctrl.GetOverview)
		secureGroup.POST("/dashboard/override", ctrl.ToggleOverride)
	}
}
