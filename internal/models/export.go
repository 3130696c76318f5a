package models

import (
	"time"

	"github.com/google/uuid"
)

// Report export statuses.
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ReportExport tracks an asynchronous budget report export job.
type ReportExport struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	RequestedBy    uuid.UUID  `json:"requested_by"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         string     `json:"status"`
	S3Key          string     `json:"s3_key,omitempty"`
	SizeBytes      int64      `json:"size_bytes,omitempty"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
