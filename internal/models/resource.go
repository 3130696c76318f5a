package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceTypes is the fixed set of accepted resource categories.
var ResourceTypes = []string{"equipment", "venue", "vehicle", "supply", "other"}

// ValidResourceType reports whether t is one of ResourceTypes.
func ValidResourceType(t string) bool {
	for _, rt := range ResourceTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Resource is a finite, shared pool of equipment tracked by total and used quantity.
// UsedQuantity is a running counter across all sessions holding the resource; it is
// only ever mutated by the session engine.
type Resource struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	TotalQuantity  int       `json:"total_quantity"`
	UsedQuantity   int       `json:"used_quantity"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Available returns the quantity not reserved by any session.
func (r *Resource) Available() int {
	return r.TotalQuantity - r.UsedQuantity
}
