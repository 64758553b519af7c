package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/dates"
	apperrors "finanzas/internal/errors"
	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

const (
	testTripID        = "0190a1b2-c3d4-7e5f-8a9b-000000000040"
	testTripExpenseID = "0190a1b2-c3d4-7e5f-8a9b-000000000041"
)

// --- mock trip service ---

type mockTripService struct {
	createTripFn    func(userID string, in services.TripInput, today time.Time) (*models.Trip, error)
	updateTripFn    func(userID, tripID string, in services.TripInput) (*models.Trip, error)
	addSavingsFn    func(userID, tripID string, amount int64) (*models.Trip, error)
	getSummaryFn    func(userID, tripID string, today time.Time) (*services.TripSummary, error)
	addExpenseFn    func(userID, tripID string, in services.TripExpenseInput) (*models.TripExpense, error)
	deleteExpenseFn func(userID, tripID, expenseID string) error
}

var _ services.TripServicer = (*mockTripService)(nil)

func (m *mockTripService) CreateTrip(userID string, in services.TripInput, today time.Time) (*models.Trip, error) {
	if m.createTripFn != nil {
		return m.createTripFn(userID, in, today)
	}
	return &models.Trip{}, nil
}

func (m *mockTripService) GetUserTrips(string, bool, pagination.PageRequest) (*pagination.PageResponse[models.Trip], error) {
	resp := pagination.NewPageResponse([]models.Trip{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTripService) GetTripByID(_, tripID string) (*models.Trip, error) {
	return &models.Trip{Base: models.Base{ID: tripID}}, nil
}

func (m *mockTripService) UpdateTrip(userID, tripID string, in services.TripInput) (*models.Trip, error) {
	if m.updateTripFn != nil {
		return m.updateTripFn(userID, tripID, in)
	}
	return &models.Trip{Base: models.Base{ID: tripID}}, nil
}

func (m *mockTripService) DeleteTrip(string, string) error {
	return nil
}

func (m *mockTripService) SetArchived(_, tripID string, archived bool) (*models.Trip, error) {
	return &models.Trip{Base: models.Base{ID: tripID}, IsArchived: archived}, nil
}

func (m *mockTripService) AddSavings(userID, tripID string, amount int64) (*models.Trip, error) {
	if m.addSavingsFn != nil {
		return m.addSavingsFn(userID, tripID, amount)
	}
	return &models.Trip{Base: models.Base{ID: tripID}}, nil
}

func (m *mockTripService) GetSummary(userID, tripID string, today time.Time) (*services.TripSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID, tripID, today)
	}
	return &services.TripSummary{TripID: tripID}, nil
}

func (m *mockTripService) AddExpense(userID, tripID string, in services.TripExpenseInput) (*models.TripExpense, error) {
	if m.addExpenseFn != nil {
		return m.addExpenseFn(userID, tripID, in)
	}
	return &models.TripExpense{}, nil
}

func (m *mockTripService) GetExpenses(string, string, pagination.PageRequest) (*pagination.PageResponse[models.TripExpense], error) {
	resp := pagination.NewPageResponse([]models.TripExpense{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTripService) DeleteExpense(userID, tripID, expenseID string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(userID, tripID, expenseID)
	}
	return nil
}

func setupTripRouter(handler *TripHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/trips", handler.CreateTrip)
	auth.GET("/trips", handler.GetUserTrips)
	auth.GET("/trips/:id", handler.GetTripByID)
	auth.PUT("/trips/:id", handler.UpdateTrip)
	auth.DELETE("/trips/:id", handler.DeleteTrip)
	auth.POST("/trips/:id/archive", handler.ArchiveTrip)
	auth.POST("/trips/:id/unarchive", handler.UnarchiveTrip)
	auth.POST("/trips/:id/savings", handler.AddSavings)
	auth.GET("/trips/:id/summary", handler.GetSummary)
	auth.POST("/trips/:id/expenses", handler.AddExpense)
	auth.GET("/trips/:id/expenses", handler.GetExpenses)
	auth.DELETE("/trips/:id/expenses/:expenseId", handler.DeleteExpense)
	return r
}

func TestTripHandler_CreateTrip(t *testing.T) {
	t.Run("returns 201 and passes today", func(t *testing.T) {
		pinToday(t, dates.Date(2024, 4, 1))
		var gotIn services.TripInput
		var gotToday time.Time
		tripSvc := &mockTripService{
			createTripFn: func(userID string, in services.TripInput, today time.Time) (*models.Trip, error) {
				gotIn, gotToday = in, today
				return &models.Trip{
					Base:      models.Base{ID: testTripID},
					UserID:    userID,
					Name:      in.Name,
					StartDate: in.StartDate,
					EndDate:   in.EndDate,
					Budget:    in.Budget,
					Status:    models.TripStatusPlanned,
				}, nil
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips",
			`{"name":"Lisboa","destination":"Portugal","start_date":"2024-08-01","end_date":"2024-08-10","budget":150000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if dates.Format(gotIn.StartDate) != "2024-08-01" || dates.Format(gotIn.EndDate) != "2024-08-10" {
			t.Errorf("unexpected dates %s..%s", dates.Format(gotIn.StartDate), dates.Format(gotIn.EndDate))
		}
		if dates.Format(gotToday) != "2024-04-01" {
			t.Errorf("expected today 2024-04-01, got %s", dates.Format(gotToday))
		}
		if gotIn.Status != nil {
			t.Errorf("expected nil status, got %v", *gotIn.Status)
		}
	})

	t.Run("accepts an explicit status", func(t *testing.T) {
		var gotIn services.TripInput
		tripSvc := &mockTripService{
			createTripFn: func(_ string, in services.TripInput, _ time.Time) (*models.Trip, error) {
				gotIn = in
				return &models.Trip{}, nil
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips",
			`{"name":"Roma","start_date":"2024-08-01","end_date":"2024-08-10","status":"en curso"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotIn.Status == nil || *gotIn.Status != models.TripStatusInProgress {
			t.Errorf("expected en curso, got %v", gotIn.Status)
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupTripRouter(NewTripHandler(&mockTripService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips",
			`{"name":"Roma","start_date":"2024-08-01","end_date":"2024-08-10","status":"cancelado"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 when end precedes start", func(t *testing.T) {
		tripSvc := &mockTripService{
			createTripFn: func(string, services.TripInput, time.Time) (*models.Trip, error) {
				return nil, apperrors.ErrInvalidTripDates
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips",
			`{"name":"Roma","start_date":"2024-08-10","end_date":"2024-08-01"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TRIP_DATES")
	})

	t.Run("returns 400 on negative budget", func(t *testing.T) {
		r := setupTripRouter(NewTripHandler(&mockTripService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips",
			`{"name":"Roma","start_date":"2024-08-01","end_date":"2024-08-10","budget":-1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTripHandler_AddSavings(t *testing.T) {
	t.Run("accepts withdrawals", func(t *testing.T) {
		var gotAmount int64
		tripSvc := &mockTripService{
			addSavingsFn: func(_, tripID string, amount int64) (*models.Trip, error) {
				gotAmount = amount
				return &models.Trip{Base: models.Base{ID: tripID}, Saved: 5000}, nil
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips/"+testTripID+"/savings", `{"amount":-2000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAmount != -2000 {
			t.Errorf("expected -2000, got %d", gotAmount)
		}
	})

	t.Run("returns 400 on zero", func(t *testing.T) {
		r := setupTripRouter(NewTripHandler(&mockTripService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips/"+testTripID+"/savings", `{"amount":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTripHandler_GetSummary(t *testing.T) {
	t.Run("returns the savings plan", func(t *testing.T) {
		pinToday(t, dates.Date(2024, 6, 1))
		tripSvc := &mockTripService{
			getSummaryFn: func(_, tripID string, today time.Time) (*services.TripSummary, error) {
				if dates.Format(today) != "2024-06-01" {
					t.Errorf("expected today 2024-06-01, got %s", dates.Format(today))
				}
				return &services.TripSummary{TripID: tripID, Budget: 100000, Saved: 40000, ToSave: 60000, MonthsLeft: 2, MonthlySavings: 30000}, nil
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/trips/"+testTripID+"/summary", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		summary := parseJSON(t, rec)["summary"].(map[string]interface{})
		if summary["monthly_savings"] != float64(30000) {
			t.Errorf("expected monthly_savings 30000, got %v", summary["monthly_savings"])
		}
	})

	t.Run("returns 404 for unknown trip", func(t *testing.T) {
		tripSvc := &mockTripService{
			getSummaryFn: func(string, string, time.Time) (*services.TripSummary, error) {
				return nil, apperrors.ErrTripNotFound
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/trips/"+testTripID+"/summary", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTripHandler_Expenses(t *testing.T) {
	t.Run("add returns 201", func(t *testing.T) {
		var gotIn services.TripExpenseInput
		tripSvc := &mockTripService{
			addExpenseFn: func(userID, tripID string, in services.TripExpenseInput) (*models.TripExpense, error) {
				gotIn = in
				return &models.TripExpense{Base: models.Base{ID: testTripExpenseID}, UserID: userID, TripID: tripID, Amount: in.Amount, Date: in.Date}, nil
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips/"+testTripID+"/expenses",
			`{"account_id":"`+testAccountID+`","amount":4500,"description":"Cena","date":"2024-08-02"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotIn.AccountID != testAccountID || gotIn.Amount != 4500 {
			t.Errorf("unexpected input %+v", gotIn)
		}
		if dates.Format(gotIn.Date) != "2024-08-02" {
			t.Errorf("expected 2024-08-02, got %s", dates.Format(gotIn.Date))
		}
	})

	t.Run("delete uses both path IDs", func(t *testing.T) {
		var gotTrip, gotExpense string
		tripSvc := &mockTripService{
			deleteExpenseFn: func(_, tripID, expenseID string) error {
				gotTrip, gotExpense = tripID, expenseID
				return nil
			},
		}
		r := setupTripRouter(NewTripHandler(tripSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/trips/"+testTripID+"/expenses/"+testTripExpenseID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotTrip != testTripID || gotExpense != testTripExpenseID {
			t.Errorf("unexpected IDs %s %s", gotTrip, gotExpense)
		}
	})

	t.Run("delete returns 400 on bad expense ID", func(t *testing.T) {
		r := setupTripRouter(NewTripHandler(&mockTripService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/trips/"+testTripID+"/expenses/nope", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTripHandler_Archive(t *testing.T) {
	t.Run("archive returns the trip", func(t *testing.T) {
		r := setupTripRouter(NewTripHandler(&mockTripService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/trips/"+testTripID+"/archive", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		trip := parseJSON(t, rec)["trip"].(map[string]interface{})
		if trip["is_archived"] != true {
			t.Errorf("expected archived trip, got %v", trip["is_archived"])
		}
	})
}
