package routes

import (
	"github.com/labstack/echo/v4"

	"device-manager/internal/controllers"
)

func runAuthRouter(api *echo.Group, secureGroup *echo.Group, ctrl *controllers.AuthController) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", ctrl.Login)
		auth.POST("/register", ctrl.Register)
		auth.POST("/refresh-token", ctrl.RefreshToken)
	}

	api.GET("/roles", ctrl.GetRoles)

	secureAuth := secureGroup.Group("/auth")
	{
		secureAuth.GET("/me", ctrl.GetProfile)
	}
}
