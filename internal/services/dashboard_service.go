package services

import (
	"time"

	"finanzas/internal/dates"
)

const upcomingWindowDays = 7

// dashboardService assembles the overview from the other services.
type dashboardService struct {
	accounts      AccountServicer
	transactions  TransactionServicer
	budgets       BudgetServicer
	fixedExpenses FixedExpenseServicer
	notifications NotificationServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(
	accounts AccountServicer,
	transactions TransactionServicer,
	budgets BudgetServicer,
	fixedExpenses FixedExpenseServicer,
	notifications NotificationServicer,
) DashboardServicer {
	return &dashboardService{
		accounts:      accounts,
		transactions:  transactions,
		budgets:       budgets,
		fixedExpenses: fixedExpenses,
		notifications: notifications,
	}
}

// GetSummary returns balances, this month's cash flow and budgets, unread
// notifications and the fixed expenses due in the next week.
func (s *dashboardService) GetSummary(userID string, today time.Time) (*DashboardSummary, error) {
	today = dates.Truncate(today)

	total, err := s.accounts.TotalBalance(userID)
	if err != nil {
		return nil, err
	}
	income, expense, err := s.transactions.MonthTotals(userID, today)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.UnreadCount(userID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.fixedExpenses.Upcoming(userID, today, today.AddDate(0, 0, upcomingWindowDays))
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgets.GetMonthProgress(userID, today)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalBalance:  total,
		MonthIncome:   income,
		MonthExpense:  expense,
		UnreadCount:   unread,
		UpcomingFixed: upcoming,
		Budgets:       budgets,
	}, nil
}
