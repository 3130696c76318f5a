package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/internal/sessions"
	"github.com/eventure/backend/pkg/response"
)

var eventStatuses = map[models.EventStatus]bool{
	models.EventStatusDraft:     true,
	models.EventStatusOngoing:   true,
	models.EventStatusCompleted: true,
	models.EventStatusCancelled: true,
	models.EventStatusPaused:    true,
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo     *Repository
	sessions *sessions.Repository
	engine   *sessions.Service
}

// NewHandler creates an event handler. The session repository backs the
// per-status session counts on the detail endpoint; the session service
// releases resource holdings when an event is deleted.
func NewHandler(repo *Repository, sessionRepo *sessions.Repository, sessionService *sessions.Service) *Handler {
	return &Handler{repo: repo, sessions: sessionRepo, engine: sessionService}
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	StartsAt       time.Time `json:"starts_at" binding:"required"`
	EndsAt         time.Time `json:"ends_at" binding:"required"`
	OrganizationID string    `json:"organization_id" binding:"required,uuid"`
	Tags           []string  `json:"tags"`
	Status         string    `json:"status"`
	PartnerName    string    `json:"partner_name"`
	PartnerPhone   string    `json:"partner_phone"`
}

// UpdateRequest is the body for PATCH /events/:id. Absent fields are unchanged.
type UpdateRequest struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Tags         []string   `json:"tags"`
	Status       *string    `json:"status"`
	PartnerName  *string    `json:"partner_name"`
	PartnerPhone *string    `json:"partner_phone"`
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		response.BadRequest(c, "ends_at must be after starts_at")
		return
	}
	status := models.EventStatusDraft
	if req.Status != "" {
		status = models.EventStatus(req.Status)
		if !eventStatuses[status] {
			response.BadRequest(c, "invalid status")
			return
		}
	}
	orgID, _ := uuid.Parse(req.OrganizationID)

	e := &models.Event{
		Name:           req.Name,
		Description:    req.Description,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		OrganizationID: orgID,
		Tags:           req.Tags,
		Status:         status,
		PartnerName:    req.PartnerName,
		PartnerPhone:   req.PartnerPhone,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /events/:id, returning the event with per-status
// session counts.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to load event")
		return
	}
	counts, err := h.sessions.CountByEventStatus(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load session counts")
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	response.OK(c, models.EventDetail{Event: *e, SessionCounts: counts, TotalSessions: total})
}

// List handles GET /events, filtered by organization_id plus optional
// status, tag and date range.
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	f := ListFilter{OrganizationID: orgID, Tag: c.Query("tag")}
	if raw := c.Query("status"); raw != "" {
		status := models.EventStatus(raw)
		if !eventStatuses[status] {
			response.BadRequest(c, "invalid status")
			return
		}
		f.Status = status
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "invalid from")
			return
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "invalid to")
			return
		}
		f.To = &t
	}

	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// ListByOrganization handles GET /organizations/:id/events.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.List(c.Request.Context(), ListFilter{OrganizationID: orgID})
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdateInput{
		Name:         req.Name,
		Description:  req.Description,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Tags:         req.Tags,
		PartnerName:  req.PartnerName,
		PartnerPhone: req.PartnerPhone,
	}
	if req.Status != nil {
		status := models.EventStatus(*req.Status)
		if !eventStatuses[status] {
			response.BadRequest(c, "invalid status")
			return
		}
		in.Status = &status
	}

	e, err := h.repo.Update(c.Request.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:id. The event's sessions are removed
// through the session engine first so their resource holdings are released
// before the row delete cascades.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.engine.DeleteByEvent(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete event sessions")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to delete event")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
