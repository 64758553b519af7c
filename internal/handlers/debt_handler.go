package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// DebtHandler handles debts (money the user owes) and loans (money owed to the user).
type DebtHandler struct {
	debtService  services.DebtServicer
	auditService services.AuditServicer
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtService services.DebtServicer, auditService services.AuditServicer) *DebtHandler {
	return &DebtHandler{debtService: debtService, auditService: auditService}
}

// CreateDebtRequest is the payload for a new debt or loan.
type CreateDebtRequest struct {
	Kind          string  `json:"kind" binding:"required,debt_kind"`
	Counterparty  string  `json:"counterparty" binding:"required,min=1,max=100"`
	Description   string  `json:"description" binding:"max=500"`
	InitialAmount int64   `json:"initial_amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"omitempty,iso4217"`
	DueDate       *string `json:"due_date" binding:"omitempty,date"`
	Reminder      bool    `json:"reminder"`
}

// UpdateDebtRequest holds optional changes. Amounts change only through payments.
type UpdateDebtRequest struct {
	Counterparty *string `json:"counterparty" binding:"omitempty,min=1,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	DueDate      *string `json:"due_date" binding:"omitempty,date"`
	Reminder     *bool   `json:"reminder"`
}

// PaymentRequest registers a repayment. With account_id the payment is also
// booked on that account.
type PaymentRequest struct {
	Amount    int64   `json:"amount" binding:"required,gt=0"`
	Date      *string `json:"date" binding:"omitempty,date"`
	AccountID *string `json:"account_id" binding:"omitempty,uuid"`
	Notes     string  `json:"notes" binding:"max=500"`
}

// CreateDebt records a new debt or loan.
// @Summary     Create a debt or loan
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDebtRequest true "Debt details"
// @Success     201 {object} models.Debt "Debt created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /debts [post]
func (h *DebtHandler) CreateDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debt, err := h.debtService.CreateDebt(userID, services.DebtInput{
		Kind:          models.DebtKind(req.Kind),
		Counterparty:  req.Counterparty,
		Description:   req.Description,
		InitialAmount: req.InitialAmount,
		Currency:      req.Currency,
		DueDate:       dueDate,
		Reminder:      req.Reminder,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_DEBT", "debt", debt.ID, c.ClientIP(),
		map[string]interface{}{"kind": debt.Kind, "amount": debt.InitialAmount})

	c.JSON(http.StatusCreated, gin.H{"debt": debt})
}

// GetUserDebts lists debts and loans.
// @Summary     Get debts
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       kind      query string false "debt or loan"
// @Param       status    query string false "pendiente, pagada or vencida"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Debt] "Paginated debts"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /debts [get]
func (h *DebtHandler) GetUserDebts(c *gin.Context) {
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

	var kind *models.DebtKind
	if raw := c.Query("kind"); raw != "" {
		k := models.DebtKind(raw)
		if k != models.DebtKindDebt && k != models.DebtKindLoan {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid kind"))
			return
		}
		kind = &k
	}
	var status *models.DebtStatus
	if raw := c.Query("status"); raw != "" {
		s := models.DebtStatus(raw)
		switch s {
		case models.DebtStatusPending, models.DebtStatusPaid, models.DebtStatusOverdue:
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status"))
			return
		}
		status = &s
	}

	result, err := h.debtService.GetUserDebts(userID, kind, status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDebtByID returns one debt with its payments.
// @Summary     Get debt by ID
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {object} models.Debt "Debt details"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id} [get]
func (h *DebtHandler) GetDebtByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	debt, err := h.debtService.GetDebtByID(userID, debtID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": debt})
}

// UpdateDebt changes the counterparty, description, due date or reminder.
// @Summary     Update debt
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Debt ID"
// @Param       request body UpdateDebtRequest true "Fields to change"
// @Success     200 {object} models.Debt "Debt updated"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id} [put]
func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debt, err := h.debtService.UpdateDebt(userID, debtID, req.Counterparty, req.Description, dueDate, req.Reminder)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": debt})
}

// DeleteDebt removes a debt and its payment history.
// @Summary     Delete debt
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {object} MessageResponse "Debt deleted"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id} [delete]
func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.debtService.DeleteDebt(userID, debtID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_DEBT", "debt", debtID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Debt deleted"})
}

// RegisterPayment reduces the outstanding balance of a debt or loan.
// @Summary     Register payment
// @Description Reduces the balance; at zero the debt becomes pagada. With account_id, a debt payment books an expense and a loan collection books income.
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Debt ID"
// @Param       request body PaymentRequest true "Payment details"
// @Success     201 {object} models.DebtPayment "Payment registered"
// @Failure     400 {object} ErrorResponse "Payment exceeds balance"
// @Failure     404 {object} ErrorResponse "Debt or account not found"
// @Failure     409 {object} ErrorResponse "Debt already paid"
// @Router      /debts/{id}/payments [post]
func (h *DebtHandler) RegisterPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	date := today()
	if req.Date != nil && *req.Date != "" {
		if date, err = parseDate("date", *req.Date); err != nil {
			respondWithError(c, err)
			return
		}
	}

	payment, err := h.debtService.RegisterPayment(userID, debtID, req.Amount, date, req.AccountID, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REGISTER_PAYMENT", "debt", debtID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "payment_id": payment.ID})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}
