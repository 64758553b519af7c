package services

import (
	"bytes"
	"encoding/csv"
	"testing"

	"finanzas/internal/dates"
	"finanzas/internal/models"
	"finanzas/internal/testutil"
)

func TestExportTransactionsCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExportService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)
	otherAccount := testutil.CreateTestAccount(t, db, other.ID)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestTransaction(t, db, user.ID, account.ID, &category.ID, models.TransactionTypeExpense, -1234, dates.Date(2024, 2, 1))
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, nil, models.TransactionTypeIncome, 50000, dates.Date(2024, 1, 1))
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, nil, models.TransactionTypeIncome, 1, dates.Date(2023, 12, 31))
	testutil.CreateTestTransaction(t, db, other.ID, otherAccount.ID, nil, models.TransactionTypeIncome, 999, dates.Date(2024, 1, 5))

	from := dates.Date(2024, 1, 1)
	var buf bytes.Buffer
	n, err := svc.ExportTransactionsCSV(user.ID, &from, nil, &buf)
	testutil.AssertNoError(t, err)
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[1][0] != "2024-01-01" || records[1][3] != "500.00" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][3] != "-12.34" || records[2][4] != category.Name || records[2][5] != account.Name {
		t.Errorf("unexpected second row: %v", records[2])
	}
}
