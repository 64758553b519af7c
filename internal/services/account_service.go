package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user. The initial balance is
// stored on the account; transactions move the balance from there.
func (s *accountService) CreateAccount(userID, name string, accountType models.AccountType, description, currency string, initialBalance int64) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if accountType == "" {
		accountType = models.AccountTypeBank
	}
	if currency == "" {
		currency = "EUR"
	}

	account := &models.Account{
		UserID:         userID,
		Name:           name,
		Type:           accountType,
		Description:    description,
		Currency:       currency,
		InitialBalance: initialBalance,
		Balance:        initialBalance,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, includeArchived bool, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if !includeArchived {
		base = base.Where("is_archived = ?", false)
	}

	result, err := pagination.Find[models.Account](base, page, "created_at ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.enrichBalances(result.Data); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	account, err := findAccount(s.db, userID, accountID)
	if err != nil {
		return nil, err
	}

	accounts := []models.Account{*account}
	if err := s.enrichBalances(accounts); err != nil {
		return nil, err
	}
	return &accounts[0], nil
}

// UpdateAccount applies the non-nil fields.
func (s *accountService) UpdateAccount(userID, accountID string, name, description, color, icon *string) (*models.Account, error) {
	account, err := findAccount(s.db, userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil && *name != "" {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if color != nil {
		updates["color"] = *color
	}
	if icon != nil {
		updates["icon"] = *icon
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAccountByID(userID, accountID)
}

// SetArchived archives or restores an account. Archived accounts keep their
// history but are hidden from default listings and reject new transactions.
func (s *accountService) SetArchived(userID, accountID string, archived bool) (*models.Account, error) {
	account, err := findAccount(s.db, userID, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(account).Update("is_archived", archived).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetAccountByID(userID, accountID)
}

// TotalBalance sums the balances of the user's non-archived accounts.
func (s *accountService) TotalBalance(userID string) (int64, error) {
	var initial int64
	if err := s.db.Model(&models.Account{}).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Select("COALESCE(SUM(initial_balance), 0)").
		Scan(&initial).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var moved int64
	if err := s.db.Model(&models.Transaction{}).
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("transactions.user_id = ? AND accounts.is_archived = ? AND accounts.deleted_at IS NULL", userID, false).
		Select("COALESCE(SUM(transactions.amount), 0)").
		Scan(&moved).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return initial + moved, nil
}

// enrichBalances sets the derived balance on each account: its initial
// balance plus the sum of its signed transaction amounts.
func (s *accountService) enrichBalances(accounts []models.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	ids := make([]string, len(accounts))
	for i := range accounts {
		ids[i] = accounts[i].ID
	}

	type sum struct {
		AccountID string
		Total     int64
	}
	var sums []sum
	if err := s.db.Model(&models.Transaction{}).
		Select("account_id, COALESCE(SUM(amount), 0) AS total").
		Where("account_id IN ?", ids).
		Group("account_id").
		Scan(&sums).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make(map[string]int64, len(sums))
	for _, row := range sums {
		totals[row.AccountID] = row.Total
	}
	for i := range accounts {
		accounts[i].Balance = accounts[i].InitialBalance + totals[accounts[i].ID]
	}
	return nil
}

// findAccount loads an account owned by userID without computing its balance.
func findAccount(db *gorm.DB, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// findWritableAccount loads an account that can receive new transactions.
func findWritableAccount(db *gorm.DB, userID, accountID string) (*models.Account, error) {
	account, err := findAccount(db, userID, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsArchived {
		return nil, apperrors.ErrAccountArchived
	}
	return account, nil
}
