package staff

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/response"
)

var staffRoles = map[string]bool{
	models.StaffRoleMember:  true,
	models.StaffRoleFinance: true,
	models.StaffRoleAdmin:   true,
}

// Handler handles staff membership HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a staff handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// AddRequest is the body for POST /organizations/:id/staff.
type AddRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role"`
}

// UpdateRequest is the body for PATCH /staff/:id.
type UpdateRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status" binding:"omitempty,oneof=active removed"`
}

// Add handles POST /organizations/:id/staff.
func (h *Handler) Add(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = models.StaffRoleMember
	}
	if !staffRoles[role] {
		response.BadRequest(c, "invalid role")
		return
	}
	userID, _ := uuid.Parse(req.UserID)

	s := &models.Staff{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		Status:         models.StaffStatusActive,
	}
	if err := h.repo.Add(c.Request.Context(), s); err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			response.Conflict(c, err.Error())
			return
		}
		response.Internal(c, "failed to add staff member")
		return
	}
	response.Created(c, s)
}

// List handles GET /organizations/:id/staff.
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load staff")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /staff/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			response.NotFound(c, "staff member not found")
			return
		}
		response.Internal(c, "failed to load staff member")
		return
	}
	response.OK(c, m)
}

// Update handles PATCH /staff/:id, changing role and/or status.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Role != nil {
		if !staffRoles[*req.Role] {
			response.BadRequest(c, "invalid role")
			return
		}
		if err := h.repo.SetRole(c.Request.Context(), id, *req.Role); err != nil {
			respondStaffError(c, err)
			return
		}
	}
	if req.Status != nil {
		if err := h.repo.SetStatus(c.Request.Context(), id, *req.Status); err != nil {
			respondStaffError(c, err)
			return
		}
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.OK(c, m)
}

// Remove handles DELETE /staff/:id. The membership is marked removed rather
// than deleted so existing session history keeps resolving the member's name.
func (h *Handler) Remove(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid staff id")
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, models.StaffStatusRemoved); err != nil {
		respondStaffError(c, err)
		return
	}
	response.OK(c, gin.H{"removed": true})
}

func respondStaffError(c *gin.Context, err error) {
	if errors.Is(err, ErrStaffNotFound) {
		response.NotFound(c, "staff member not found")
		return
	}
	response.Internal(c, "staff operation failed")
}
