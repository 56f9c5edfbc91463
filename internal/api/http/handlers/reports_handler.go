package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/auth"
)

// ReportsHandler serves the dashboard, range reports and CSV exports.
type ReportsHandler struct {
	reports ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Dashboard GET /dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.reports.Dashboard(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboardResponse(stats)})
}

// Refresh POST /dashboard/refresh.
func (h *ReportsHandler) Refresh(c *fiber.Ctx) error {
	if _, err := auth.CurrentUser(c); err != nil {
		return err
	}
	if err := h.reports.Refresh(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Range GET /reports/range?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *ReportsHandler) Range(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	report, err := h.reports.Range(c.UserContext(), user, c.Query("start"), c.Query("end"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rangeReportResponse(report)})
}

// RangeCSV GET /reports/range.csv?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *ReportsHandler) RangeCSV(c *fiber.Ctx) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	filename, err := h.reports.ExportCSV(c.UserContext(), user, c.Query("start"), c.Query("end"), &buf)
	if err != nil {
		return err
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}
