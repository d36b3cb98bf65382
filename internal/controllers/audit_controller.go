package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"device-manager/internal/entities"
	"device-manager/internal/services"
	"device-manager/pkg/utils"
)

type AuditController struct {
	auditService services.AuditServiceInterface
	logger       *zap.Logger
}

func NewAuditController(auditService services.AuditServiceInterface, logger *zap.Logger) *AuditController {
	return &AuditController{auditService: auditService, logger: logger}
}

// GetAuditLogs отдаёт журнал аудита. format=csv и format=xlsx выгружают
// журнал файлом целиком.
func (c *AuditController) GetAuditLogs(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	format := strings.ToLower(ctx.QueryParam("format"))

	if format == "csv" || format == "xlsx" {
		filter.Page = 1
		filter.Offset = 0
		filter.Limit = 100000
	}

	logs, total, err := c.auditService.GetAuditLogs(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	switch format {
	case "csv":
		return c.respondWithCSV(ctx, logs)
	case "xlsx":
		return c.respondWithXLSX(ctx, logs)
	}

	return utils.SuccessResponse(ctx, logs, "Журнал аудита успешно получен", http.StatusOK, total)
}

func (c *AuditController) GetDeviceAudit(ctx echo.Context) error {
	deviceID, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	logs, err := c.auditService.GetDeviceAudit(ctx.Request().Context(), deviceID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, logs, "Журнал аудита устройства успешно получен", http.StatusOK)
}

var auditHeaders = []string{"Дата", "Устройство", "Действие", "Старое значение", "Новое значение", "Пользователь"}

func auditRow(item entities.AuditLog) []string {
	return []string{
		item.PerformedAt.Format("02.01.2006 15:04"),
		strconv.FormatUint(item.DeviceID, 10),
		item.Action,
		utils.PtrValue(item.OldValue, ""),
		utils.PtrValue(item.NewValue, ""),
		item.PerformedBy,
	}
}

func (c *AuditController) respondWithCSV(ctx echo.Context, logs []entities.AuditLog) error {
	fileName := fmt.Sprintf("audit_%s.csv", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(ctx.Response().Writer)
	if err := w.Write(auditHeaders); err != nil {
		return err
	}
	for _, item := range logs {
		if err := w.Write(auditRow(item)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (c *AuditController) respondWithXLSX(ctx echo.Context, logs []entities.AuditLog) error {
	f := excelize.NewFile()
	sheet := "Аудит"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &auditHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "F1", style)

	for i, item := range logs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := auditRow(item)
		generic := make([]interface{}, len(row))
		for j, v := range row {
			generic[j] = v
		}
		f.SetSheetRow(sheet, cell, &generic)
	}
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "C", "E", 25)
	f.SetColWidth(sheet, "F", "F", 25)

	fileName := fmt.Sprintf("audit_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
