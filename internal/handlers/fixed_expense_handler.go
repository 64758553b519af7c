package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/pagination"
	"finanzas/internal/recurrence"
	"finanzas/internal/services"
)

const (
	defaultPreviewCount = 6
	maxPreviewCount     = 24
)

// FixedExpenseHandler handles scheduled fixed expense requests.
type FixedExpenseHandler struct {
	fixedExpenseService services.FixedExpenseServicer
	auditService        services.AuditServicer
}

// NewFixedExpenseHandler creates a new FixedExpenseHandler.
func NewFixedExpenseHandler(fixedExpenseService services.FixedExpenseServicer, auditService services.AuditServicer) *FixedExpenseHandler {
	return &FixedExpenseHandler{fixedExpenseService: fixedExpenseService, auditService: auditService}
}

// FixedExpenseRequest is the payload for creating or replacing a fixed expense.
type FixedExpenseRequest struct {
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Description string  `json:"description" binding:"required,min=1,max=200"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	Frequency   string  `json:"frequency" binding:"required,frequency"`
	NextDueDate string  `json:"next_due_date" binding:"required,date"`
	DayOfMonth  *int    `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	Notify      bool    `json:"notify"`
}

func (r *FixedExpenseRequest) input() (services.FixedExpenseInput, error) {
	due, err := parseDate("next_due_date", r.NextDueDate)
	if err != nil {
		return services.FixedExpenseInput{}, err
	}
	return services.FixedExpenseInput{
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
		Frequency:   recurrence.Frequency(r.Frequency),
		NextDueDate: due,
		DayOfMonth:  r.DayOfMonth,
		Notify:      r.Notify,
	}, nil
}

// PreviewResponse lists upcoming due dates.
type PreviewResponse struct {
	Dates []string `json:"dates"`
}

// CreateFixedExpense schedules a recurring expense.
// @Summary     Create a fixed expense
// @Description Schedule a recurring expense. The recurring-expenses job posts it as an expense on each due date.
// @Tags        fixed-expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FixedExpenseRequest true "Schedule details"
// @Success     201 {object} models.FixedExpense "Fixed expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Router      /fixed-expenses [post]
func (h *FixedExpenseHandler) CreateFixedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FixedExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	fe, err := h.fixedExpenseService.CreateFixedExpense(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_FIXED_EXPENSE", "fixed_expense", fe.ID, c.ClientIP(),
		map[string]interface{}{"amount": fe.Amount, "frequency": fe.Frequency})

	c.JSON(http.StatusCreated, gin.H{"fixed_expense": fe})
}

// GetUserFixedExpenses lists schedules ordered by next due date.
// @Summary     Get fixed expenses
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       active_only query bool false "Only active schedules"
// @Param       page        query int  false "Page number (default 1)"
// @Param       page_size   query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.FixedExpense] "Paginated fixed expenses"
// @Router      /fixed-expenses [get]
func (h *FixedExpenseHandler) GetUserFixedExpenses(c *gin.Context) {
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
	activeOnly, err := queryBool(c, "active_only")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.fixedExpenseService.GetUserFixedExpenses(userID, activeOnly, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFixedExpenseByID returns one schedule.
// @Summary     Get fixed expense by ID
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Fixed expense ID"
// @Success     200 {object} models.FixedExpense "Fixed expense details"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Router      /fixed-expenses/{id} [get]
func (h *FixedExpenseHandler) GetFixedExpenseByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fe, err := h.fixedExpenseService.GetFixedExpenseByID(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fixed_expense": fe})
}

// UpdateFixedExpense replaces a schedule's fields.
// @Summary     Update fixed expense
// @Tags        fixed-expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Fixed expense ID"
// @Param       request body FixedExpenseRequest true "Schedule details"
// @Success     200 {object} models.FixedExpense "Fixed expense updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Router      /fixed-expenses/{id} [put]
func (h *FixedExpenseHandler) UpdateFixedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FixedExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	fe, err := h.fixedExpenseService.UpdateFixedExpense(userID, id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_FIXED_EXPENSE", "fixed_expense", fe.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"fixed_expense": fe})
}

// DeleteFixedExpense removes a schedule. Posted transactions are kept.
// @Summary     Delete fixed expense
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Fixed expense ID"
// @Success     200 {object} MessageResponse "Fixed expense deleted"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Router      /fixed-expenses/{id} [delete]
func (h *FixedExpenseHandler) DeleteFixedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.fixedExpenseService.DeleteFixedExpense(userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_FIXED_EXPENSE", "fixed_expense", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Fixed expense deleted"})
}

// PauseFixedExpense stops a schedule from posting.
// @Summary     Pause fixed expense
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Fixed expense ID"
// @Success     200 {object} models.FixedExpense "Fixed expense paused"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Router      /fixed-expenses/{id}/pause [post]
func (h *FixedExpenseHandler) PauseFixedExpense(c *gin.Context) {
	h.setActive(c, false)
}

// ResumeFixedExpense reactivates a paused schedule. Occurrences missed while
// paused are skipped.
// @Summary     Resume fixed expense
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Fixed expense ID"
// @Success     200 {object} models.FixedExpense "Fixed expense resumed"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Failure     409 {object} ErrorResponse "One-time fixed expense already posted"
// @Router      /fixed-expenses/{id}/resume [post]
func (h *FixedExpenseHandler) ResumeFixedExpense(c *gin.Context) {
	h.setActive(c, true)
}

func (h *FixedExpenseHandler) setActive(c *gin.Context, active bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fe, err := h.fixedExpenseService.SetActive(userID, id, active, today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fixed_expense": fe})
}

// PreviewFixedExpense lists the next due dates of a schedule.
// @Summary     Preview due dates
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path  string true  "Fixed expense ID"
// @Param       n  query int    false "Number of dates (default 6, max 24)"
// @Success     200 {object} PreviewResponse "Upcoming due dates"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Router      /fixed-expenses/{id}/preview [get]
func (h *FixedExpenseHandler) PreviewFixedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	n := defaultPreviewCount
	if raw := c.Query("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPreviewCount {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "n must be between 1 and 24"))
			return
		}
	}

	due, err := h.fixedExpenseService.Preview(userID, id, n)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := PreviewResponse{Dates: make([]string, 0, len(due))}
	for _, d := range due {
		resp.Dates = append(resp.Dates, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, resp)
}

// PostFixedExpense books the current occurrence now, ahead of the job.
// @Summary     Post fixed expense now
// @Description Books the currently due occurrence as an expense and advances the schedule by one period.
// @Tags        fixed-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Fixed expense ID"
// @Success     201 {object} models.Transaction "Posted transaction"
// @Failure     404 {object} ErrorResponse "Fixed expense not found"
// @Failure     409 {object} ErrorResponse "Fixed expense inactive or already posted"
// @Router      /fixed-expenses/{id}/post [post]
func (h *FixedExpenseHandler) PostFixedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.fixedExpenseService.PostNow(userID, id, today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "POST_FIXED_EXPENSE", "fixed_expense", id, c.ClientIP(),
		map[string]interface{}{"transaction_id": txn.ID})

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}
