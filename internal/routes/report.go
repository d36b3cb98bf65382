package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runReportRouter(secureGroup *echo.Group, ctrl *controllers.ReportController) {
	{
		secureGroup.GET("/reports/technician-performance", ctrl.GetTechnicianPerformance)
	}
}
