package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff org-level roles.
const (
	StaffRoleMember  = "member"
	StaffRoleFinance = "finance"
	StaffRoleAdmin   = "admin"
)

// Staff membership statuses.
const (
	StaffStatusActive  = "active"
	StaffStatusRemoved = "removed"
)

// Staff links a user account to an organization with an org-level role.
type Staff struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StaffMember is a staff row joined with the linked user account.
type StaffMember struct {
	Staff
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
