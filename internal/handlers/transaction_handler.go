package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// TransactionHandler handles transaction and transfer requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Amount is the positive magnitude; the stored amount is signed by type.
type CreateTransactionRequest struct {
	AccountID   string                 `json:"account_id" binding:"required,uuid"`
	CategoryID  *string                `json:"category_id" binding:"omitempty,uuid"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      int64                  `json:"amount" binding:"required,gt=0"`
	Description string                 `json:"description" binding:"max=500"`
	Notes       string                 `json:"notes" binding:"max=2000"`
	Date        *string                `json:"date" binding:"omitempty,date"`
	TripID      *string                `json:"trip_id" binding:"omitempty,uuid"`
}

// UpdateTransactionRequest holds optional changes to a transaction. An empty
// category_id clears the category.
type UpdateTransactionRequest struct {
	AccountID   *string                 `json:"account_id" binding:"omitempty,uuid"`
	CategoryID  *string                 `json:"category_id"`
	Type        *models.TransactionType `json:"type"`
	Amount      *int64                  `json:"amount" binding:"omitempty,gt=0"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Notes       *string                 `json:"notes" binding:"omitempty,max=2000"`
	Date        *string                 `json:"date"`
}

// CreateTransferRequest moves money between two of the user's accounts.
type CreateTransferRequest struct {
	FromAccountID string  `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string  `json:"to_account_id" binding:"required,uuid"`
	Amount        int64   `json:"amount" binding:"required,gt=0"`
	Description   string  `json:"description" binding:"max=500"`
	Date          *string `json:"date" binding:"omitempty,date"`
}

// UpdateTransferRequest holds optional changes applied to both legs.
type UpdateTransferRequest struct {
	Amount      *int64  `json:"amount" binding:"omitempty,gt=0"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Date        *string `json:"date"`
}

// TransactionQuery holds the list filters accepted in the query string.
type TransactionQuery struct {
	FromDate   string `form:"from_date"`
	ToDate     string `form:"to_date"`
	Type       string `form:"type" binding:"omitempty,oneof=income expense transfer"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	AccountID  string `form:"account_id" binding:"omitempty,uuid"`
	TripID     string `form:"trip_id" binding:"omitempty,uuid"`
	MinAmount  *int64 `form:"min_amount" binding:"omitempty,gte=0"`
	MaxAmount  *int64 `form:"max_amount" binding:"omitempty,gte=0"`
}

func bindTransactionQuery(c *gin.Context) (pagination.PageRequest, services.TransactionFilter, error) {
	var page pagination.PageRequest
	var filter services.TransactionFilter
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, filter, invalidInput(err)
	}

	var q TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return page, filter, invalidInput(err)
	}

	var err error
	if filter.FromDate, err = parseOptionalDate("from_date", &q.FromDate); err != nil {
		return page, filter, err
	}
	if filter.ToDate, err = parseOptionalDate("to_date", &q.ToDate); err != nil {
		return page, filter, err
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return page, filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not be before from_date")
	}
	if q.Type != "" {
		t := models.TransactionType(q.Type)
		filter.Type = &t
	}
	if q.CategoryID != "" {
		filter.CategoryID = &q.CategoryID
	}
	if q.AccountID != "" {
		filter.AccountID = &q.AccountID
	}
	if q.TripID != "" {
		filter.TripID = &q.TripID
	}
	filter.MinAmount = q.MinAmount
	filter.MaxAmount = q.MaxAmount
	return page, filter, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create an income or expense on an account. Send the positive amount in cents; expenses are stored negative.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     409 {object} ErrorResponse "Account archived"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
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

	txn, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		Date:        date,
		TripID:      req.TripID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"type": txn.Type, "amount": txn.Amount, "account_id": txn.AccountID})

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// GetUserTransactions lists the user's transactions, newest first.
// @Summary     Get user transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "From date (YYYY-MM-DD)"
// @Param       to_date     query string false "To date (YYYY-MM-DD)"
// @Param       type        query string false "income, expense or transfer"
// @Param       category_id query string false "Category ID"
// @Param       account_id  query string false "Account ID"
// @Param       trip_id     query string false "Trip ID"
// @Param       min_amount  query int    false "Minimum absolute amount in cents"
// @Param       max_amount  query int    false "Maximum absolute amount in cents"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, filter, err := bindTransactionQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID returns one transaction.
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UpdateTransaction edits an income or expense. Transfer legs are edited through their transfer.
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input or transfer leg"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.UpdateTransaction(userID, transactionID, services.TransactionUpdate{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Notes:       req.Notes,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction removes a transaction. Deleting a transfer leg removes the whole transfer.
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted"})
}

// CreateTransfer moves money between two accounts.
// @Summary     Create a transfer
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} models.Transfer "Transfer created with both legs"
// @Failure     400 {object} ErrorResponse "Invalid input or same account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /transfers [post]
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransferRequest
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

	transfer, err := h.transactionService.CreateTransfer(userID, req.FromAccountID, req.ToAccountID, req.Amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSFER", "transfer", transfer.ID, c.ClientIP(),
		map[string]interface{}{"from": req.FromAccountID, "to": req.ToAccountID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}

// GetTransfer returns a transfer with its legs.
// @Summary     Get transfer
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     200 {object} models.Transfer "Transfer details"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [get]
func (h *TransactionHandler) GetTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transactionService.GetTransfer(userID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// UpdateTransfer edits a transfer and both of its legs.
// @Summary     Update transfer
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Transfer ID"
// @Param       request body UpdateTransferRequest true "Fields to change"
// @Success     200 {object} models.Transfer "Transfer updated"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [put]
func (h *TransactionHandler) UpdateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transactionService.UpdateTransfer(userID, transferID, req.Amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSFER", "transfer", transfer.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// DeleteTransfer removes a transfer and both legs.
// @Summary     Delete transfer
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     200 {object} MessageResponse "Transfer deleted"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [delete]
func (h *TransactionHandler) DeleteTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransfer(userID, transferID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSFER", "transfer", transferID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Transfer deleted"})
}
