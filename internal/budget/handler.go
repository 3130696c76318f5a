package budget

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/response"
)

// Handler handles budget transaction HTTP endpoints.
type Handler struct {
	ledger *Ledger
}

// NewHandler creates a budget handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// CreateRequest is the body for POST /transactions.
type CreateRequest struct {
	Type           string  `json:"type" binding:"required,oneof=income expense"`
	AmountCents    int64   `json:"amount_cents" binding:"required,gt=0"`
	Description    string  `json:"description"`
	Date           *string `json:"date"`
	OrganizationID string  `json:"organization_id" binding:"required,uuid"`
	EventID        *string `json:"event_id" binding:"omitempty,uuid"`
}

// UpdateRequest is the body for PATCH /transactions/:id. Absent fields are unchanged.
type UpdateRequest struct {
	Type        *string `json:"type" binding:"omitempty,oneof=income expense"`
	AmountCents *int64  `json:"amount_cents" binding:"omitempty,gt=0"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

// Create handles POST /transactions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	orgID, _ := uuid.Parse(req.OrganizationID)

	in := CreateInput{
		Type:           models.TransactionType(req.Type),
		AmountCents:    req.AmountCents,
		Description:    req.Description,
		OrganizationID: orgID,
	}
	if req.EventID != nil {
		eventID, _ := uuid.Parse(*req.EventID)
		in.EventID = &eventID
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		in.Date = date
	}

	t, err := h.ledger.Create(c.Request.Context(), in)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Created(c, t)
}

// GetByID handles GET /transactions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}
	t, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.OK(c, t)
}

// List handles GET /transactions. Results are filtered by organization_id
// (required) plus optional event_id, start_date and end_date, and returned
// newest first together with a summary over the same set.
func (h *Handler) List(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	result, err := h.ledger.FindAll(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to load transactions")
		return
	}
	response.OK(c, result)
}

// Update handles PATCH /transactions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdateInput{
		AmountCents: req.AmountCents,
		Description: req.Description,
	}
	if req.Type != nil {
		typ := models.TransactionType(*req.Type)
		in.Type = &typ
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			response.BadRequest(c, "invalid date")
			return
		}
		in.Date = &date
	}

	t, err := h.ledger.Update(c.Request.Context(), id, in)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /transactions/:id. The inverse delta is applied to
// the organization balance.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), id); err != nil {
		respondLedgerError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// Summary handles GET /budget/summary.
func (h *Handler) Summary(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	var eventID *uuid.UUID
	if raw := c.Query("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		eventID = &id
	}
	s, err := h.ledger.Summary(c.Request.Context(), orgID, eventID)
	if err != nil {
		response.Internal(c, "failed to load summary")
		return
	}
	response.OK(c, s)
}

func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		response.NotFound(c, "transaction not found")
	case errors.Is(err, ErrOrganizationNotFound):
		response.NotFound(c, "organization not found")
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInvalidAmount):
		response.BadRequest(c, err.Error())
	default:
		response.Internal(c, "transaction operation failed")
	}
}

func parseFilter(c *gin.Context) (Filter, bool) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		response.BadRequest(c, "invalid organization_id")
		return Filter{}, false
	}
	f := Filter{OrganizationID: orgID}

	if raw := c.Query("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return Filter{}, false
		}
		f.EventID = &id
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			response.BadRequest(c, "invalid start_date")
			return Filter{}, false
		}
		f.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			response.BadRequest(c, "invalid end_date")
			return Filter{}, false
		}
		// Date-only bounds are inclusive of the whole day.
		if len(raw) == len(time.DateOnly) {
			t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		f.EndDate = &t
	}
	return f, true
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
