package services

import (
	"io"
	"time"

	"gorm.io/gorm"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/export"
	"finanzas/internal/models"
)

// exportService renders user data for download.
type exportService struct {
	db *gorm.DB
}

// NewExportService creates a new ExportServicer.
func NewExportService(db *gorm.DB) ExportServicer {
	return &exportService{db: db}
}

// ExportTransactionsCSV writes the user's transactions within the optional
// date range to w, oldest first, and returns the number of rows written.
func (s *exportService) ExportTransactionsCSV(userID string, from, to *time.Time, w io.Writer) (int, error) {
	q := s.db.Model(&models.Transaction{}).
		Preload("Category").
		Preload("Account").
		Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", dates.Truncate(*from))
	}
	if to != nil {
		q = q.Where("date <= ?", dates.Truncate(*to))
	}

	var transactions []models.Transaction
	if err := q.Order("date ASC, created_at ASC").Find(&transactions).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rows := make([]export.Row, len(transactions))
	for i, t := range transactions {
		row := export.Row{
			Date:        t.Date,
			Description: t.Description,
			Type:        string(t.Type),
			Amount:      t.Amount,
			Notes:       t.Notes,
		}
		if t.Category != nil {
			row.Category = t.Category.Name
		}
		if t.Account != nil {
			row.Account = t.Account.Name
		}
		rows[i] = row
	}

	if err := export.WriteTransactions(w, rows); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return len(rows), nil
}
