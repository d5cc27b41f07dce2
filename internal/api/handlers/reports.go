// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/exports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type generateReportRequest struct {
	ReportType string            `json:"reportType"`
	DateRange  exports.DateRange `json:"dateRange"`
}

func (h *Handler) GenerateReportHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req generateReportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.BadRequest("Invalid request body").WithDetails(err.Error()), "")
			return
		}
	}

	report, err := h.Reports.GenerateReport(c.Request.Context(), caller.UserID, req.ReportType, req.DateRange)
	if err != nil {
		apierr.Respond(c, err, "Failed to generate report")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListReportsHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	reports, err := h.Reports.ListReports(c.Request.Context(), caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to fetch reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GetReportHandler(c *gin.Context) {
	report, ok := h.ownedReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ExportReportHandler(c *gin.Context) {
	report, ok := h.ownedReport(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", exports.FormatJSON))
	file, err := exports.Export(report, format)
	if err != nil {
		apierr.Respond(c, err, "Failed to export report")
		return
	}

	h.Metrics.ReportExported(format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

func (h *Handler) ownedReport(c *gin.Context) (exports.Report, bool) {
	caller, ok := h.caller(c)
	if !ok {
		return exports.Report{}, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.BadRequest("Invalid report id"), "")
		return exports.Report{}, false
	}

	report, err := h.Reports.GetReport(c.Request.Context(), caller.UserID, id)
	if err != nil {
		apierr.Respond(c, err, "Failed to load report")
		return exports.Report{}, false
	}
	return report, true
}
