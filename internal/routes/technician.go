package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runTechnicianRouter(secureGroup *echo.Group, ctrl *controllers.TechnicianController) {
	{
		secureGroup.GET("/technicians", ctrl.GetTechnicians)
		secureGroup.POST("/technicians", ctrl.CreateTechnician)
		secureGroup.GET("/technicians/:id", ctrl.FindTechnician)
		secureGroup.PUT("/technicians/:id", ctrl.UpdateTechnician)
		secureGroup.DELETE("/technicians/:id", ctrl.DeleteTechnician)
		secureGroup.POST("/technicians/:id/restore", ctrl.RestoreTechnician)
	}
}
