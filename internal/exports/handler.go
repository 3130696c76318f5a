package exports

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventure/backend/internal/middleware"
	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/queue"
	"github.com/eventure/backend/pkg/response"
	"github.com/eventure/backend/pkg/storage"
)

// Handler handles budget report export HTTP endpoints. Exports are built
// asynchronously by the worker; the handler only records the request and
// enqueues the job.
type Handler struct {
	repo   *Repository
	queue  *queue.Queue
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an export handler.
func NewHandler(repo *Repository, q *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, queue: q, s3: s3, logger: logger}
}

// CreateRequest is the body for POST /exports.
type CreateRequest struct {
	OrganizationID string  `json:"organization_id" binding:"required,uuid"`
	EventID        *string `json:"event_id" binding:"omitempty,uuid"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
}

// Create handles POST /budget/exports: records a pending export and enqueues the
// build job.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	orgID, _ := uuid.Parse(req.OrganizationID)
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	e := &models.ReportExport{
		OrganizationID: orgID,
		RequestedBy:    userID,
		Status:         models.ExportStatusPending,
	}
	if req.EventID != nil {
		id, _ := uuid.Parse(*req.EventID)
		e.EventID = &id
	}
	var err error
	if e.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		response.BadRequest(c, "invalid start_date")
		return
	}
	if e.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		response.BadRequest(c, "invalid end_date")
		return
	}

	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create export failed", zap.Error(err))
		response.Internal(c, "failed to create export")
		return
	}
	if err := h.queue.EnqueueReportExport(c.Request.Context(), queue.ReportExportPayload{
		ExportID:       e.ID,
		OrganizationID: e.OrganizationID,
	}); err != nil {
		h.logger.Error("enqueue export failed", zap.Error(err), zap.String("export_id", e.ID.String()))
		if markErr := h.repo.MarkFailed(c.Request.Context(), e.ID, "failed to enqueue job"); markErr != nil {
			h.logger.Error("mark export failed", zap.Error(markErr))
		}
		response.Internal(c, "failed to enqueue export")
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /budget/exports/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrExportNotFound) {
			response.NotFound(c, "export not found")
			return
		}
		response.Internal(c, "failed to load export")
		return
	}
	response.OK(c, e)
}

// List handles GET /budget/exports, filtered by organization_id.
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load exports")
		return
	}
	response.OK(c, list)
}

// DownloadURL handles GET /budget/exports/:id/download-url, returning a pre-signed URL
// for the completed report.
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrExportNotFound) {
			response.NotFound(c, "export not found")
			return
		}
		response.Internal(c, "failed to load export")
		return
	}
	if e.Status != models.ExportStatusCompleted || e.S3Key == "" {
		response.Conflict(c, "export is not ready")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "export storage is not configured")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.ExportsBucket(), e.S3Key, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign export failed", zap.Error(err), zap.String("key", e.S3Key))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"url": url, "expires_in_seconds": int(h.s3.PresignExpire().Seconds())})
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
