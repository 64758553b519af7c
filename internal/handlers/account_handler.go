package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService     services.AccountServicer
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountService services.AccountServicer,
	transactionService services.TransactionServicer,
	auditService services.AuditServicer,
) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		transactionService: transactionService,
		auditService:       auditService,
	}
}

// CreateAccountRequest represents the request payload for creating an account
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required,min=1,max=100"`
	Type           models.AccountType `json:"type" binding:"omitempty,account_type"`
	Description    string             `json:"description" binding:"max=500"`
	Currency       string             `json:"currency" binding:"omitempty,iso4217"`
	InitialBalance int64              `json:"initial_balance"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a new account for the authenticated user. The balance is derived from the initial balance and the account's transactions.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	account, err := h.accountService.CreateAccount(userID, req.Name, req.Type, req.Description, req.Currency, req.InitialBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "type": account.Type, "currency": account.Currency})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetUserAccounts handles the retrieval of all accounts for a user
// @Summary     Get user accounts
// @Description Get the authenticated user's accounts with derived balances
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       include_archived query bool false "Include archived accounts"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Account] "Paginated accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
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
	includeArchived, err := queryBool(c, "include_archived")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.accountService.GetUserAccounts(userID, includeArchived, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccountByID handles the retrieval of a specific account for a user
// @Summary     Get account by ID
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account details"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount handles updating an account.
// @Summary     Update account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} models.Account "Account updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	account, err := h.accountService.UpdateAccount(userID, accountID, req.Name, req.Description, req.Color, req.Icon)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ACCOUNT", "account", account.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// ArchiveAccount hides an account from default listings and blocks new transactions on it.
// @Summary     Archive account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account archived"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/archive [post]
func (h *AccountHandler) ArchiveAccount(c *gin.Context) {
	h.setArchived(c, true)
}

// UnarchiveAccount restores an archived account.
// @Summary     Unarchive account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account restored"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/unarchive [post]
func (h *AccountHandler) UnarchiveAccount(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *AccountHandler) setArchived(c *gin.Context, archived bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.SetArchived(userID, accountID, archived)
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := "ARCHIVE_ACCOUNT"
	if !archived {
		action = "UNARCHIVE_ACCOUNT"
	}
	h.auditService.Log(userID, action, "account", account.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// GetAccountTransactions lists the transactions of one account.
// @Summary     Get account transactions
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id         path  string true  "Account ID"
// @Param       from_date  query string false "From date (YYYY-MM-DD)"
// @Param       to_date    query string false "To date (YYYY-MM-DD)"
// @Param       type       query string false "income or expense or transfer"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *AccountHandler) GetAccountTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, filter, err := bindTransactionQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetAccountTransactions(userID, accountID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
