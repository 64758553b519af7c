package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/services"
)

// DashboardHandler serves the overview and data export endpoints.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
	exportService    services.ExportServicer
	auditService     services.AuditServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer, exportService services.ExportServicer, auditService services.AuditServicer) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
		auditService:     auditService,
	}
}

// GetDashboard returns the landing page summary.
// @Summary     Dashboard summary
// @Description Total balance, this month's income and expense, budget progress, unread notifications and fixed expenses due in the next 7 days.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardSummary
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.dashboardService.GetSummary(userID, today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportTransactions downloads transactions as CSV.
// @Summary     Export transactions
// @Tags        export
// @Produce     text/csv
// @Security    BearerAuth
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to   query string false "End date (YYYY-MM-DD)"
// @Success     200 {file} file "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /export/transactions.csv [get]
func (h *DashboardHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := dateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Buffered so a failed query still produces a JSON error.
	var buf bytes.Buffer
	rows, err := h.exportService.ExportTransactionsCSV(userID, from, to, &buf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXPORT_TRANSACTIONS", "transaction", "", c.ClientIP(),
		map[string]interface{}{"rows": rows})

	filename := fmt.Sprintf("transacciones-%s.csv", dates.Format(today()))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Row-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func dateRange(c *gin.Context) (from, to *time.Time, err error) {
	fromRaw, toRaw := c.Query("from"), c.Query("to")
	if from, err = parseOptionalDate("from", &fromRaw); err != nil {
		return nil, nil, err
	}
	if to, err = parseOptionalDate("to", &toRaw); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}
	return from, to, nil
}
