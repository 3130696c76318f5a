package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the top-level tenant owning events, staff, resources and a budget.
// CurrentBudgetCents is maintained exclusively by the budget ledger.
type Organization struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	CurrentBudgetCents int64     `json:"current_budget_cents"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
