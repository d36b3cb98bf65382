package routes

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"device-manager/internal/controllers"
	"device-manager/internal/listeners"
	"device-manager/internal/repositories"
	"device-manager/internal/services"
	"device-manager/pkg/config"
	"device-manager/pkg/eventbus"
	"device-manager/pkg/middleware"
	"device-manager/pkg/service"
)

// InitRouter собирает весь граф зависимостей: репозитории, сервисы,
// контроллеры и маршруты. Здесь же подписываются слушатели событий и
// стартует фоновый SLA-монитор.
func InitRouter(
	ctx context.Context,
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	jwtSvc service.JWTService,
	logger *zap.Logger,
	authPermissionService *services.AuthPermissionService,
	cacheRepo repositories.CacheRepositoryInterface,
	cfg *config.Config,
) {
	logger.Info("InitRouter: начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, authPermissionService, logger)
	txManager := repositories.NewTxManager(dbConn)
	bus := eventbus.New(logger)

	// --- репозитории ---
	userRepo := repositories.NewUserRepository(dbConn)
	roleRepo := repositories.NewRoleRepository(dbConn)
	deviceRepo := repositories.NewDeviceRepository(dbConn)
	deviceTypeRepo := repositories.NewDeviceTypeRepository(dbConn)
	technicianRepo := repositories.NewTechnicianRepository(dbConn)
	diagnosisRepo := repositories.NewDiagnosisRepository(dbConn)
	auditRepo := repositories.NewAuditRepository(dbConn)
	historyRepo := repositories.NewDeviceHistoryRepository(dbConn)
	notificationRepo := repositories.NewNotificationRepository(dbConn)
	settingsRepo := repositories.NewSettingsRepository(dbConn)
	reportRepo := repositories.NewReportRepository(dbConn)
	dashboardRepo := repositories.NewDashboardRepository(dbConn)

	// --- сервисы ---
	emailService := services.NewLogEmailService(logger)
	dispatcher := services.NewNotificationDispatcher(notificationRepo, cacheRepo, userRepo, emailService, logger)
	overrideService := services.NewOverrideService(settingsRepo, logger, cfg.Override.DefaultWindow)
	authService := services.NewAuthService(userRepo, roleRepo, jwtSvc, logger)
	deviceService := services.NewDeviceService(
		txManager, deviceRepo, deviceTypeRepo, technicianRepo, diagnosisRepo,
		auditRepo, historyRepo, userRepo, dispatcher, overrideService, logger,
	)
	technicianService := services.NewTechnicianService(
		txManager, technicianRepo, deviceRepo, auditRepo, historyRepo, userRepo, dispatcher, logger,
	)
	diagnosisService := services.NewDiagnosisService(
		txManager, diagnosisRepo, deviceRepo, technicianRepo,
		auditRepo, historyRepo, userRepo, overrideService, logger,
	)
	notificationService := services.NewNotificationService(notificationRepo, cacheRepo, logger)
	auditService := services.NewAuditService(auditRepo, logger)
	reportService := services.NewReportService(reportRepo, logger)
	dashboardService := services.NewDashboardService(dashboardRepo, overrideService, logger)

	// --- слушатели и фоновые задачи ---
	notificationListener := listeners.NewNotificationListener(dispatcher, technicianRepo, userRepo, logger)
	notificationListener.Register(bus)

	slaMonitor := services.NewSLAMonitor(deviceRepo, bus, cfg.SLA.ScanInterval, logger)
	slaMonitor.Start(ctx)

	// --- контроллеры ---
	authController := controllers.NewAuthController(authService, logger)
	deviceController := controllers.NewDeviceController(deviceService, logger)
	technicianController := controllers.NewTechnicianController(technicianService, logger)
	diagnosisController := controllers.NewDiagnosisController(diagnosisService, logger)
	notificationController := controllers.NewNotificationController(notificationService, logger)
	auditController := controllers.NewAuditController(auditService, logger)
	reportController := controllers.NewReportController(reportService, logger)
	dashboardController := controllers.NewDashboardController(dashboardService, logger)

	// --- маршруты ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, secureGroup, authController)
	runDeviceRouter(secureGroup, deviceController, diagnosisController)
	runTechnicianRouter(secureGroup, technicianController)
	runDiagnosisRouter(secureGroup, diagnosisController)
	runNotificationRouter(secureGroup, notificationController)
	runAuditRouter(secureGroup, auditController)
	runReportRouter(secureGroup, reportController)
	runDashboardRouter(secureGroup, dashboardController)

	logger.Info("InitRouter: маршруты успешно созданы")
}
