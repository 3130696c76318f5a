package resources

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/response"
)

// Handler handles resource HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a resource handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /resources.
type CreateRequest struct {
	OrganizationID string `json:"organization_id" binding:"required,uuid"`
	Name           string `json:"name" binding:"required"`
	Type           string `json:"type" binding:"required"`
	TotalQuantity  int    `json:"total_quantity" binding:"min=0"`
	Note           string `json:"note"`
}

// UpdateRequest is the body for PATCH /resources/:id. Absent fields are unchanged.
type UpdateRequest struct {
	Name          *string `json:"name"`
	Type          *string `json:"type"`
	TotalQuantity *int    `json:"total_quantity" binding:"omitempty,min=0"`
	Note          *string `json:"note"`
}

// Create handles POST /resources.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !models.ValidResourceType(req.Type) {
		response.BadRequest(c, "invalid resource type")
		return
	}
	orgID, _ := uuid.Parse(req.OrganizationID)

	res := &models.Resource{
		OrganizationID: orgID,
		Name:           req.Name,
		Type:           req.Type,
		TotalQuantity:  req.TotalQuantity,
		Note:           req.Note,
	}
	if err := h.repo.Create(c.Request.Context(), res); err != nil {
		response.Internal(c, "failed to create resource")
		return
	}
	response.Created(c, res)
}

// GetByID handles GET /resources/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}
	res, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			response.NotFound(c, "resource not found")
			return
		}
		response.Internal(c, "failed to load resource")
		return
	}
	response.OK(c, res)
}

// List handles GET /resources, filtered by organization_id and optional type.
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	resourceType := c.Query("type")
	if resourceType != "" && !models.ValidResourceType(resourceType) {
		response.BadRequest(c, "invalid resource type")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID, resourceType)
	if err != nil {
		response.Internal(c, "failed to load resources")
		return
	}
	response.OK(c, list)
}

// ListByOrganization handles GET /organizations/:id/resources.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID, "")
	if err != nil {
		response.Internal(c, "failed to load resources")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /resources/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Type != nil && !models.ValidResourceType(*req.Type) {
		response.BadRequest(c, "invalid resource type")
		return
	}

	res, err := h.repo.Update(c.Request.Context(), id, UpdateInput{
		Name:          req.Name,
		Type:          req.Type,
		TotalQuantity: req.TotalQuantity,
		Note:          req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrResourceNotFound):
			response.NotFound(c, "resource not found")
		case errors.Is(err, ErrBelowUsage):
			response.BadRequest(c, err.Error())
		default:
			response.Internal(c, "failed to update resource")
		}
		return
	}
	response.OK(c, res)
}

// Delete handles DELETE /resources/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrResourceNotFound):
			response.NotFound(c, "resource not found")
		case errors.Is(err, ErrResourceInUse):
			response.Conflict(c, err.Error())
		default:
			response.Internal(c, "failed to delete resource")
		}
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
