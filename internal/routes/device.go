package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runDeviceRouter(secureGroup *echo.Group, ctrl *controllers.DeviceController, diagnosisCtrl *controllers.DiagnosisController) {
	{
		secureGroup.GET("/devices", ctrl.GetDevices)
		secureGroup.POST("/devices", ctrl.CreateDevice)
		secureGroup.GET("/devices/pending-approval", ctrl.GetPendingApproval)
		secureGroup.GET("/devices/my-tasks", ctrl.GetMyTasks)
		secureGroup.GET("/devices/:id", ctrl.FindDevice)
		secureGroup.PUT("/devices/:id", ctrl.UpdateDevice)
		secureGroup.DELETE("/devices/:id", ctrl.DeleteDevice)

		secureGroup.PUT("/devices/:id/assignment", ctrl.AssignDevice)
		secureGroup.PUT("/devices/:id/due-date", ctrl.UpdateDueDate)
		secureGroup.PUT("/devices/:id/work-status", ctrl.UpdateWorkStatus)
		secureGroup.POST("/devices/:id/approve", ctrl.ApproveDevice)

		secureGroup.GET("/devices/:id/history", ctrl.GetDeviceHistory)
		secureGroup.GET("/devices/:id/diagnoses", diagnosisCtrl.GetByDevice)
		secureGroup.POST("/devices/:id/diagnoses", diagnosisCtrl.CreateDiagnosis)

		secureGroup.GET("/device-types", ctrl.GetDeviceTypes)
	}
}
