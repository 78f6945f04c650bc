package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zekoya/storefront/services"
	"github.com/zekoya/storefront/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminReportController struct {
	reportService services.ReportService
}

func InitAdminReportController(reportService services.ReportService) *AdminReportController {
	return &AdminReportController{reportService: reportService}
}

func (rc *AdminReportController) Dashboard(c *gin.Context) {
	utils.LogInfo("Dashboard called")
	ctx, cancel := WithTimeout(c)
	defer cancel()

	dashboard, err := rc.reportService.Dashboard(ctx)
	if err != nil {
		fail(c, "Dashboard", err)
		return
	}
	utils.Success(c, "Dashboard retrieved successfully", dashboard)
}

// SalesReport answers with JSON by default; format=excel or format=pdf
// downloads the same report as a file.
func (rc *AdminReportController) SalesReport(c *gin.Context) {
	utils.LogInfo("SalesReport called")
	var filter services.SalesReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.RespondWithError(c, err)
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "excel" && format != "pdf" {
		utils.BadRequest(c, "Invalid format", "Format must be json, excel, or pdf")
		return
	}
	ctx, cancel := WithTimeout(c)
	defer cancel()

	report, err := rc.reportService.SalesReport(ctx, filter)
	if err != nil {
		fail(c, "SalesReport", err)
		return
	}
	utils.LogDebug("Sales report %s: %d orders, %d buckets", report.Range, report.Summary.Orders, len(report.Buckets))

	switch format {
	case "excel":
		data, err := services.RenderSalesExcel(report)
		if err != nil {
			fail(c, "SalesReport", err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+report.FileName("xlsx"))
		c.Data(http.StatusOK, xlsxContentType, data)
	case "pdf":
		data, err := services.RenderSalesPDF(report)
		if err != nil {
			fail(c, "SalesReport", err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+report.FileName("pdf"))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		utils.Success(c, "Sales report generated successfully", report)
	}
}
