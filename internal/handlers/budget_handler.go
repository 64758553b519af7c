package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/dates"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
// Month defaults to the current month.
type CreateBudgetRequest struct {
	CategoryID string `json:"category_id" binding:"required,uuid"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	Month      string `json:"month" binding:"omitempty,yyyymm"`
	Rollover   bool   `json:"rollover"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Amount   *int64 `json:"amount" binding:"omitempty,gt=0"`
	Rollover *bool  `json:"rollover"`
}

// CopyBudgetsRequest names the month to fill from the month before it.
type CopyBudgetsRequest struct {
	Month string `json:"month" binding:"required,yyyymm"`
}

// monthParam reads an optional YYYY-MM value, defaulting to the current month.
func monthParam(value string) (time.Time, error) {
	if value == "" {
		return dates.MonthStart(today()), nil
	}
	return parseMonth("month", value)
}

// CreateBudget handles the creation of a new budget
// @Summary     Create a budget
// @Description Create a monthly budget for a category. Only one budget per category and month is allowed.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate budget"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	month, err := monthParam(req.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, req.CategoryID, req.Amount, month, req.Rollover)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"category_id": req.CategoryID, "amount": req.Amount, "month": dates.Format(budget.PeriodStart)})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetUserBudgets lists budgets, optionally for one month.
// @Summary     Get budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month     query string false "Month (YYYY-MM)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /budgets [get]
func (h *BudgetHandler) GetUserBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	var month *time.Time
	if raw := c.Query("month"); raw != "" {
		m, err := parseMonth("month", raw)
		if err != nil {
			respondWithError(c, err)
			return
		}
		month = &m
	}

	result, err := h.budgetService.GetUserBudgets(userID, month, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetByID returns one budget.
// @Summary     Get budget by ID
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudgetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget changes the amount or rollover flag.
// @Summary     Update budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} models.Budget "Budget updated"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, req.Amount, req.Rollover)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget removes a budget.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted"})
}

// GetBudgetProgress returns spending against one budget.
// @Summary     Get budget progress
// @Description Spent, available (with rollover carryover), remaining and percentage for a budget.
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetProgress "Budget progress"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// GetMonthProgress returns progress for every budget of a month.
// @Summary     Get monthly budget progress
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM), defaults to the current month"
// @Success     200 {array} services.BudgetProgress "Progress per budget"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /budgets/progress [get]
func (h *BudgetHandler) GetMonthProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := monthParam(c.Query("month"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetMonthProgress(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if progress == nil {
		progress = []services.BudgetProgress{}
	}

	c.JSON(http.StatusOK, gin.H{"month": month.Format("2006-01"), "budgets": progress})
}

// CopyFromPreviousMonth copies last month's budgets into a month.
// @Summary     Copy previous month's budgets
// @Description Creates the month's budgets from the previous month, skipping categories that already have one.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CopyBudgetsRequest true "Target month"
// @Success     201 {array} models.Budget "Budgets created"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /budgets/copy [post]
func (h *BudgetHandler) CopyFromPreviousMonth(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CopyBudgetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	month, err := parseMonth("month", req.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	created, err := h.budgetService.CopyFromPreviousMonth(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "COPY_BUDGETS", "budget", "", c.ClientIP(),
		map[string]interface{}{"month": req.Month, "created": len(created)})

	c.JSON(http.StatusCreated, gin.H{"budgets": created, "created": len(created)})
}
