package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusPlanning  SessionStatus = "planning"
	SessionStatusDoing     SessionStatus = "doing"
	SessionStatusDone      SessionStatus = "done"
	SessionStatusCancelled SessionStatus = "cancelled"
)

var sessionStatusLabels = map[SessionStatus]string{
	SessionStatusPlanning:  "Not started",
	SessionStatusDoing:     "In progress",
	SessionStatusDone:      "Completed",
	SessionStatusCancelled: "Cancelled",
}

// Label returns the display text for the status, falling back to the raw value.
func (s SessionStatus) Label() string {
	if l, ok := sessionStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	_, ok := sessionStatusLabels[s]
	return ok
}

// HistoryKind identifies the kind of change recorded in a session history entry.
type HistoryKind string

const (
	HistoryUpdateResource HistoryKind = "updateResource"
	HistoryUpdateStatus   HistoryKind = "updateStatus"
	HistoryUpdateTime     HistoryKind = "updateTime"
	HistoryUpdateStaff    HistoryKind = "updateStaff"
)

// HistoryEntry is one human-readable change inside a history record.
type HistoryEntry struct {
	Kind   HistoryKind `json:"kind"`
	Detail string      `json:"detail"`
}

// HistoryRecord bundles the changes produced by a single session update.
// Records are append-only.
type HistoryRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Entries   []HistoryEntry `json:"entries"`
}

// SessionResource is one resource allocation held by a session.
type SessionResource struct {
	ResourceID uuid.UUID `json:"resource_id"`
	Quantity   int       `json:"quantity"`
}

// Session is a scheduled activity within an event, consuming staff and resource
// allocations. StartTime/EndTime are nil when no time is set.
type Session struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	EventID     uuid.UUID         `json:"event_id"`
	StartTime   *time.Time        `json:"start_time,omitempty"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Location    string            `json:"location,omitempty"`
	Status      SessionStatus     `json:"status"`
	StaffIDs    []uuid.UUID       `json:"staff_ids"`
	Resources   []SessionResource `json:"resources"`
	History     []HistoryRecord   `json:"history"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
