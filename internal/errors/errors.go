// Package errors provides custom error types for the finanzas API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrAccountArchived = &AppError{Code: "ACCOUNT_ARCHIVED", Message: "Account is archived", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryHasChildren = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "Category has child categories", StatusCode: http.StatusConflict}
	ErrSelfParentCategory  = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
	ErrCategoryTooDeep     = &AppError{Code: "CATEGORY_TOO_DEEP", Message: "Categories support a single level of nesting", StatusCode: http.StatusBadRequest}
	ErrDefaultCategory     = &AppError{Code: "DEFAULT_CATEGORY", Message: "Default categories cannot be modified", StatusCode: http.StatusForbidden}
	ErrDuplicateCategory   = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrSameAccountTransfer    = &AppError{Code: "SAME_ACCOUNT_TRANSFER", Message: "Cannot transfer to the same account", StatusCode: http.StatusBadRequest}
	ErrTransactionNotEditable = &AppError{Code: "TRANSACTION_NOT_EDITABLE", Message: "This transaction must be edited through its source", StatusCode: http.StatusBadRequest}
	ErrInvalidTypeChange      = &AppError{Code: "INVALID_TYPE_CHANGE", Message: "Cannot change transaction type to or from transfer", StatusCode: http.StatusBadRequest}
	ErrTransferNotFound       = &AppError{Code: "TRANSFER_NOT_FOUND", Message: "Transfer not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetNotFound  = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudget = &AppError{Code: "DUPLICATE_BUDGET", Message: "A budget for this category and month already exists", StatusCode: http.StatusConflict}
)

// Fixed expense errors.
var (
	ErrFixedExpenseNotFound = &AppError{Code: "FIXED_EXPENSE_NOT_FOUND", Message: "Fixed expense not found", StatusCode: http.StatusNotFound}
	ErrFixedExpenseInactive = &AppError{Code: "FIXED_EXPENSE_INACTIVE", Message: "Fixed expense is not active", StatusCode: http.StatusConflict}
	ErrFixedExpenseDone     = &AppError{Code: "FIXED_EXPENSE_COMPLETED", Message: "One-time fixed expense was already posted", StatusCode: http.StatusConflict}
	ErrNothingDue           = &AppError{Code: "NOTHING_DUE", Message: "No occurrence is due yet", StatusCode: http.StatusConflict}
	ErrInvalidFrequency     = &AppError{Code: "INVALID_FREQUENCY", Message: "Unsupported frequency", StatusCode: http.StatusBadRequest}
)

// Trip errors.
var (
	ErrTripNotFound        = &AppError{Code: "TRIP_NOT_FOUND", Message: "Trip not found", StatusCode: http.StatusNotFound}
	ErrTripExpenseNotFound = &AppError{Code: "TRIP_EXPENSE_NOT_FOUND", Message: "Trip expense not found", StatusCode: http.StatusNotFound}
	ErrInvalidTripDates    = &AppError{Code: "INVALID_TRIP_DATES", Message: "Trip end date must not be before its start date", StatusCode: http.StatusBadRequest}
)

// Debt errors.
var (
	ErrDebtNotFound       = &AppError{Code: "DEBT_NOT_FOUND", Message: "Debt not found", StatusCode: http.StatusNotFound}
	ErrPaymentExceedsDebt = &AppError{Code: "PAYMENT_EXCEEDS_BALANCE", Message: "Payment exceeds the outstanding balance", StatusCode: http.StatusBadRequest}
	ErrDebtAlreadyPaid    = &AppError{Code: "DEBT_ALREADY_PAID", Message: "Debt is already paid", StatusCode: http.StatusConflict}
)

// Goal errors.
var (
	ErrGoalNotFound = &AppError{Code: "GOAL_NOT_FOUND", Message: "Goal not found", StatusCode: http.StatusNotFound}
)

// Notification errors.
var (
	ErrNotificationNotFound = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
)

// Job errors.
var (
	ErrUnknownJob    = &AppError{Code: "UNKNOWN_JOB", Message: "Unknown job", StatusCode: http.StatusNotFound}
	ErrJobLocked     = &AppError{Code: "JOB_ALREADY_RUNNING", Message: "Job is already running", StatusCode: http.StatusConflict}
	ErrJobRunFailure = &AppError{Code: "JOB_FAILED", Message: "Job run failed", StatusCode: http.StatusInternalServerError}

	ErrPipelineNotConfigured = &AppError{Code: "PIPELINE_NOT_CONFIGURED", Message: "Pipeline endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
	ErrInvalidAPIKey         = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
)
