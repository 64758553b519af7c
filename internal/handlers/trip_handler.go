package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

// TripHandler handles trips and their expenses.
type TripHandler struct {
	tripService  services.TripServicer
	auditService services.AuditServicer
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService services.TripServicer, auditService services.AuditServicer) *TripHandler {
	return &TripHandler{tripService: tripService, auditService: auditService}
}

// TripRequest is the payload for creating or replacing a trip.
type TripRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Destination string  `json:"destination" binding:"max=200"`
	StartDate   string  `json:"start_date" binding:"required,date"`
	EndDate     string  `json:"end_date" binding:"required,date"`
	Budget      int64   `json:"budget" binding:"gte=0"`
	Currency    string  `json:"currency" binding:"omitempty,iso4217"`
	Status      *string `json:"status" binding:"omitempty,trip_status"`
}

func (r *TripRequest) input() (services.TripInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return services.TripInput{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return services.TripInput{}, err
	}
	in := services.TripInput{
		Name:        r.Name,
		Destination: r.Destination,
		StartDate:   start,
		EndDate:     end,
		Budget:      r.Budget,
		Currency:    r.Currency,
	}
	if r.Status != nil {
		s := models.TripStatus(*r.Status)
		in.Status = &s
	}
	return in, nil
}

// AmountRequest carries a positive or negative amount in cents.
type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,ne=0"`
}

// TripExpenseRequest is the payload for a new trip expense.
type TripExpenseRequest struct {
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=500"`
	Date        *string `json:"date" binding:"omitempty,date"`
}

// CreateTrip plans a new trip.
// @Summary     Create a trip
// @Tags        trips
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TripRequest true "Trip details"
// @Success     201 {object} models.Trip "Trip created"
// @Failure     400 {object} ErrorResponse "Invalid input or dates"
// @Router      /trips [post]
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	trip, err := h.tripService.CreateTrip(userID, in, today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRIP", "trip", trip.ID, c.ClientIP(),
		map[string]interface{}{"name": trip.Name, "budget": trip.Budget})

	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// GetUserTrips lists trips by start date.
// @Summary     Get trips
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       include_archived query bool false "Include archived trips"
// @Param       page             query int  false "Page number (default 1)"
// @Param       page_size        query int  false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Trip] "Paginated trips"
// @Router      /trips [get]
func (h *TripHandler) GetUserTrips(c *gin.Context) {
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

	result, err := h.tripService.GetUserTrips(userID, includeArchived, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTripByID returns one trip.
// @Summary     Get trip by ID
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trip ID"
// @Success     200 {object} models.Trip "Trip details"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id} [get]
func (h *TripHandler) GetTripByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	trip, err := h.tripService.GetTripByID(userID, tripID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// UpdateTrip replaces a trip's fields. A status sent here overrides the automatic one.
// @Summary     Update trip
// @Tags        trips
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string      true "Trip ID"
// @Param       request body TripRequest true "Trip details"
// @Success     200 {object} models.Trip "Trip updated"
// @Failure     400 {object} ErrorResponse "Invalid input or dates"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id} [put]
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	trip, err := h.tripService.UpdateTrip(userID, tripID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRIP", "trip", trip.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// DeleteTrip removes a trip and its expense records. Mirrored transactions are kept.
// @Summary     Delete trip
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trip ID"
// @Success     200 {object} MessageResponse "Trip deleted"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id} [delete]
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.tripService.DeleteTrip(userID, tripID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRIP", "trip", tripID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Trip deleted"})
}

// ArchiveTrip hides a trip from default listings.
// @Summary     Archive trip
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trip ID"
// @Success     200 {object} models.Trip "Trip archived"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id}/archive [post]
func (h *TripHandler) ArchiveTrip(c *gin.Context) {
	h.setArchived(c, true)
}

// UnarchiveTrip restores an archived trip.
// @Summary     Unarchive trip
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trip ID"
// @Success     200 {object} models.Trip "Trip restored"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id}/unarchive [post]
func (h *TripHandler) UnarchiveTrip(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *TripHandler) setArchived(c *gin.Context, archived bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	trip, err := h.tripService.SetArchived(userID, tripID, archived)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// AddSavings changes the amount saved for a trip. Negative amounts withdraw.
// @Summary     Add trip savings
// @Tags        trips
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Trip ID"
// @Param       request body AmountRequest true "Amount in cents"
// @Success     200 {object} models.Trip "Trip updated"
// @Failure     400 {object} ErrorResponse "Savings cannot go negative"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id}/savings [post]
func (h *TripHandler) AddSavings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	trip, err := h.tripService.AddSavings(userID, tripID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// GetSummary returns spending and the savings plan for a trip.
// @Summary     Get trip summary
// @Description Spent, remaining budget, saved, and the monthly and weekly savings needed before departure.
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Trip ID"
// @Success     200 {object} services.TripSummary "Trip summary"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id}/summary [get]
func (h *TripHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.tripService.GetSummary(userID, tripID, today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// AddExpense records trip spending and mirrors it as an expense transaction.
// @Summary     Add trip expense
// @Tags        trips
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Trip ID"
// @Param       request body TripExpenseRequest true "Expense details"
// @Success     201 {object} models.TripExpense "Trip expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Trip or account not found"
// @Router      /trips/{id}/expenses [post]
func (h *TripHandler) AddExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TripExpenseRequest
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

	expense, err := h.tripService.AddExpense(userID, tripID, services.TripExpenseInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses lists a trip's expenses.
// @Summary     Get trip expenses
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Trip ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.TripExpense] "Paginated expenses"
// @Failure     404 {object} ErrorResponse "Trip not found"
// @Router      /trips/{id}/expenses [get]
func (h *TripHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.tripService.GetExpenses(userID, tripID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteExpense removes a trip expense and its mirrored transaction.
// @Summary     Delete trip expense
// @Tags        trips
// @Produce     json
// @Security    BearerAuth
// @Param       id        path string true "Trip ID"
// @Param       expenseId path string true "Trip expense ID"
// @Success     200 {object} MessageResponse "Trip expense deleted"
// @Failure     404 {object} ErrorResponse "Trip expense not found"
// @Router      /trips/{id}/expenses/{expenseId} [delete]
func (h *TripHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tripID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "expenseId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.tripService.DeleteExpense(userID, tripID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Trip expense deleted"})
}
