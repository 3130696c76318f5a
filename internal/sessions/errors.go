package sessions

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when a referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrResourceNotFound is returned when a session update references a
	// resource that does not resolve.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrInsufficientCapacity is returned when a resource delta would exceed
	// the resource's available quantity.
	ErrInsufficientCapacity = errors.New("insufficient resource capacity")

	// ErrInvalidResources is returned when a proposed resource list has a
	// non-positive quantity or a duplicate resource ID.
	ErrInvalidResources = errors.New("invalid resource list")
)

// ResourceNotFoundError carries the unresolvable resource ID.
type ResourceNotFoundError struct {
	ResourceID uuid.UUID
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.ResourceID)
}

func (e *ResourceNotFoundError) Unwrap() error {
	return ErrResourceNotFound
}

// InsufficientCapacityError names the offending resource and the shortfall.
type InsufficientCapacityError struct {
	ResourceName string
	Requested    int
	Available    int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity for resource %q: requested %d more, %d available",
		e.ResourceName, e.Requested, e.Available)
}

func (e *InsufficientCapacityError) Unwrap() error {
	return ErrInsufficientCapacity
}
