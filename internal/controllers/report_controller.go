package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/internal/services"
	"device-manager/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetTechnicianPerformance отдаёт отчёт по производительности техников.
// При format=xlsx отчёт выгружается файлом целиком, без пагинации.
func (c *ReportController) GetTechnicianPerformance(ctx echo.Context) error {
	filter, format := c.parseFilters(ctx)

	data, total, err := c.reportService.GetTechnicianPerformance(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if format == "xlsx" {
		return c.respondWithXLSX(ctx, data)
	}

	return utils.SuccessResponse(ctx, data, "Отчёт успешно сформирован", http.StatusOK, total)
}

func (c *ReportController) parseFilters(ctx echo.Context) (entities.ReportFilter, string) {
	stdFilter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	filter := entities.ReportFilter{
		SortBy:  ctx.QueryParam("sort_by"),
		Page:    stdFilter.Page,
		PerPage: stdFilter.Limit,
	}
	format := strings.ToLower(ctx.QueryParam("format"))

	if format == "xlsx" {
		filter.Page = 1
		filter.PerPage = 100000 // выгружаем всё для экспорта
	}

	if df := ctx.QueryParam("date_from"); df != "" {
		if t, err := time.Parse(time.RFC3339, df); err == nil {
			filter.DateFrom = &t
		}
	}
	if dt := ctx.QueryParam("date_to"); dt != "" {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			filter.DateTo = &t
		}
	}

	var strs []string
	if arr, ok := ctx.QueryParams()["technician_ids[]"]; ok {
		strs = arr
	} else if s := ctx.QueryParam("technician_ids"); s != "" {
		strs = strings.Split(s, ",")
	}
	ids, _ := utils.ParseUint64Slice(strs)
	filter.TechnicianIDs = ids

	return filter, format
}

var performanceHeaders = []string{
	"Техник", "Завершено", "В срок (SLA)", "Просрочено (SLA)", "SLA, %",
	"Среднее время (часы)", "Назначено сейчас", "В работе", "Ждут подтверждения",
	"Critical", "High", "Medium", "Low",
}

func performanceRow(item dto.TechnicianPerformanceDTO) []interface{} {
	return []interface{}{
		item.TechnicianName, item.TotalDevicesCompleted, item.DevicesMetSLA, item.DevicesMissedSLA,
		fmt.Sprintf("%.1f", item.SLAComplianceRate), fmt.Sprintf("%.2f", item.AverageCompletionHrs),
		item.CurrentlyAssigned, item.InProgress, item.WaitingApproval,
		item.CriticalDevices, item.HighDevices, item.MediumDevices, item.LowDevices,
	}
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, data []dto.TechnicianPerformanceDTO) error {
	f := excelize.NewFile()
	sheet := "Производительность"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &performanceHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "M1", style)

	for i, item := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := performanceRow(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "A", "A", 30)
	f.SetColWidth(sheet, "B", "I", 18)

	fileName := fmt.Sprintf("technician_performance_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
