package organizations

import (
	"errors"
	"fmt"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventure/backend/internal/middleware"
	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/response"
	"github.com/eventure/backend/pkg/storage"
)

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an organization handler. s3 may be nil, in which case
// avatar uploads are disabled.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// CreateRequest is the body for POST /organizations.
type CreateRequest struct {
	Name               string `json:"name" binding:"required"`
	Email              string `json:"email" binding:"omitempty,email"`
	InitialBudgetCents int64  `json:"initial_budget_cents" binding:"min=0"`
}

// UpdateRequest is the body for PATCH /organizations/:id.
type UpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// Create handles POST /organizations. The caller becomes the organization's
// first admin staff member.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	org := &models.Organization{
		Name:               req.Name,
		Email:              req.Email,
		CurrentBudgetCents: req.InitialBudgetCents,
	}
	if err := h.repo.Create(c.Request.Context(), org, userID); err != nil {
		h.logger.Error("create organization failed", zap.Error(err))
		response.Internal(c, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// GetByID handles GET /organizations/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	org, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}
	response.OK(c, org)
}

// List handles GET /organizations, returning the caller's organizations.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load organizations")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /organizations/:id. The running budget is not
// editable here; it only moves through budget transactions.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	org, err := h.repo.Update(c.Request.Context(), id, UpdateInput{Name: req.Name, Email: req.Email})
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to update organization")
		return
	}
	response.OK(c, org)
}

// UploadAvatar handles POST /organizations/:id/avatar with a multipart file.
func (h *Handler) UploadAvatar(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "avatar storage is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	if fileHeader.Size > storage.MaxAvatarFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateAvatarFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer file.Close()

	key := storage.AvatarKey(id.String(), fmt.Sprintf("%s%s", uuid.NewString(), path.Ext(fileHeader.Filename)))
	url, err := h.s3.Upload(c.Request.Context(), h.s3.AvatarsBucket(), key, contentType, file, fileHeader.Size, true)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to upload avatar")
		return
	}
	if err := h.repo.SetAvatarURL(c.Request.Context(), id, url); err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to save avatar")
		return
	}
	response.OK(c, gin.H{"avatar_url": url})
}

// Delete handles DELETE /organizations/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to delete organization")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
