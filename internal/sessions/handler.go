package sessions

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/response"
)

// Handler handles session HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a session handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ResourceAllocation is one resource line in a request body.
type ResourceAllocation struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// ScheduleBody is the proposed schedule; a null bound clears the time.
type ScheduleBody struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description"`
	EventID     string               `json:"event_id" binding:"required,uuid"`
	Location    string               `json:"location"`
	Status      string               `json:"status"`
	Schedule    *ScheduleBody        `json:"schedule"`
	StaffIDs    []string             `json:"staff_ids"`
	Resources   []ResourceAllocation `json:"resources"`
}

// UpdateRequest is the body for PATCH /sessions/:id. Absent fields are unchanged.
type UpdateRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Location    *string              `json:"location"`
	Status      *string              `json:"status"`
	Schedule    *ScheduleBody        `json:"schedule"`
	StaffIDs    []string             `json:"staff_ids"`
	Resources   []ResourceAllocation `json:"resources"`
}

// Create handles POST /sessions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eventID, _ := uuid.Parse(req.EventID)

	status := models.SessionStatusPlanning
	if req.Status != "" {
		status = models.SessionStatus(req.Status)
		if !status.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
	}

	schedule, err := parseSchedule(req.Schedule)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	staffIDs, err := parseUUIDs(req.StaffIDs)
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	resources, err := parseAllocations(req.Resources)
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}

	sess, err := h.svc.Create(c.Request.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		EventID:     eventID,
		Location:    req.Location,
		Status:      status,
		Schedule:    schedule,
		StaffIDs:    staffIDs,
		Resources:   resources,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Created(c, sess)
}

// GetByID handles GET /sessions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	sess, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, sess)
}

// ListByEvent handles GET /events/:id/sessions.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load sessions")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /sessions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.Status != nil {
		status := models.SessionStatus(*req.Status)
		if !status.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		in.Status = &status
	}
	if req.Schedule != nil {
		schedule, err := parseSchedule(req.Schedule)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		in.Schedule = &schedule
	}
	if req.StaffIDs != nil {
		staffIDs, err := parseUUIDs(req.StaffIDs)
		if err != nil {
			response.BadRequest(c, "invalid staff id")
			return
		}
		in.StaffIDs = staffIDs
	}
	if req.Resources != nil {
		resources, err := parseAllocations(req.Resources)
		if err != nil {
			response.BadRequest(c, "invalid resource id")
			return
		}
		in.Resources = resources
	}

	sess, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, sess)
}

// Delete handles DELETE /sessions/:id. Deleting a session releases every
// resource allocation it holds.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(c, "session not found")
	case errors.Is(err, ErrResourceNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrInsufficientCapacity), errors.Is(err, ErrInvalidResources):
		response.BadRequest(c, err.Error())
	default:
		response.Internal(c, "session operation failed")
	}
}

func parseSchedule(body *ScheduleBody) (ScheduleInput, error) {
	var out ScheduleInput
	if body == nil {
		return out, nil
	}
	if body.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *body.StartTime)
		if err != nil {
			return out, errors.New("invalid start_time")
		}
		out.StartTime = &t
	}
	if body.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *body.EndTime)
		if err != nil {
			return out, errors.New("invalid end_time")
		}
		out.EndTime = &t
	}
	return out, nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseAllocations(raw []ResourceAllocation) ([]models.SessionResource, error) {
	out := make([]models.SessionResource, 0, len(raw))
	for _, a := range raw {
		id, err := uuid.Parse(a.ResourceID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SessionResource{ResourceID: id, Quantity: a.Quantity})
	}
	return out, nil
}
