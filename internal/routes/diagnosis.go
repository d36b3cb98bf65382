package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runDiagnosisRouter(secureGroup *echo.Group, ctrl *controllers.DiagnosisController) {
	{
		secureGroup.PUT("/diagnoses/:id", ctrl.UpdateDiagnosis)
		secureGroup.DELETE("/diagnoses/:id", ctrl.DeleteDiagnosis)
	}
}
