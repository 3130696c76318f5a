package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusPaused    EventStatus = "paused"
)

// Event represents an organization event containing sessions.
type Event struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	StartsAt       time.Time   `json:"starts_at"`
	EndsAt         time.Time   `json:"ends_at"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Tags           []string    `json:"tags"`
	Status         EventStatus `json:"status"`
	PartnerName    string      `json:"partner_name,omitempty"`
	PartnerPhone   string      `json:"partner_phone,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// EventDetail is an event with per-status session counts (for GET /events/:id).
type EventDetail struct {
	Event
	SessionCounts map[SessionStatus]int `json:"session_counts"`
	TotalSessions int                   `json:"total_sessions"`
}
