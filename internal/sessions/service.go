package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// Service reconciles session updates against shared resource pools and keeps
// an auditable change history. All mutations are all-or-nothing: every delta
// is validated before any resource usage is committed, inside one storage
// transaction.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a session service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ScheduleInput is a proposed session schedule. A nil bound means no time set.
type ScheduleInput struct {
	StartTime *time.Time
	EndTime   *time.Time
}

// CreateInput holds the fields for a new session.
type CreateInput struct {
	Title       string
	Description string
	EventID     uuid.UUID
	Location    string
	Status      models.SessionStatus
	Schedule    ScheduleInput
	StaffIDs    []uuid.UUID
	Resources   []models.SessionResource
}

// UpdateInput holds a session's proposed state. Nil fields mean unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Location    *string
	Status      *models.SessionStatus
	Schedule    *ScheduleInput
	StaffIDs    []uuid.UUID              // nil = unchanged, empty = clear
	Resources   []models.SessionResource // nil = unchanged, empty = release all
}

// Get returns the full session aggregate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.store.GetSession(ctx, id)
}

// ListByEvent returns an event's sessions.
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Session, error) {
	return s.store.ListByEvent(ctx, eventID)
}

// Create inserts a session, validating and reserving its initial resource
// allocations. Creation produces no history record.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Session, error) {
	if err := validateResourceList(in.Resources); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.SessionStatusPlanning
	}

	sess := &models.Session{
		Title:       in.Title,
		Description: in.Description,
		EventID:     in.EventID,
		Location:    in.Location,
		Status:      status,
		StartTime:   in.Schedule.StartTime,
		EndTime:     in.Schedule.EndTime,
		StaffIDs:    in.StaffIDs,
		Resources:   in.Resources,
	}

	err := s.store.WithinTx(ctx, func(tx TxStore) error {
		deltas := resourceDeltas(nil, in.Resources)
		if _, err := s.applyResourceDeltas(ctx, tx, deltas); err != nil {
			return err
		}
		return tx.InsertSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Update reconciles a session against its proposed state: resource deltas are
// validated against available capacity and committed, and one history record
// is appended covering every business-relevant change. If nothing changed, no
// history record is written.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Session, error) {
	if in.Resources != nil {
		if err := validateResourceList(in.Resources); err != nil {
			return nil, err
		}
	}

	var updated *models.Session
	err := s.store.WithinTx(ctx, func(tx TxStore) error {
		sess, err := tx.GetSessionForUpdate(ctx, id)
		if err != nil {
			return err
		}

		var entries []models.HistoryEntry

		if in.Resources != nil {
			deltas := resourceDeltas(sess.Resources, in.Resources)
			resourceByID, err := s.applyResourceDeltas(ctx, tx, deltas)
			if err != nil {
				return err
			}
			for _, d := range deltas {
				if d.Delta() != 0 {
					entries = append(entries, resourceEntry(resourceByID[d.ResourceID].Name, d))
				}
			}
			sess.Resources = in.Resources
		}

		if in.Status != nil && *in.Status != sess.Status {
			entries = append(entries, statusEntry(sess.Status, *in.Status))
		}
		if in.Status != nil {
			sess.Status = *in.Status
		}

		if in.Schedule != nil {
			entries = append(entries, timeEntries(sess.StartTime, sess.EndTime, in.Schedule.StartTime, in.Schedule.EndTime)...)
			sess.StartTime = in.Schedule.StartTime
			sess.EndTime = in.Schedule.EndTime
		}

		if in.StaffIDs != nil {
			names, err := tx.StaffNames(ctx, staffUnion(sess.StaffIDs, in.StaffIDs))
			if err != nil {
				return err
			}
			entries = append(entries, staffEntries(sess.StaffIDs, in.StaffIDs, names)...)
			sess.StaffIDs = in.StaffIDs
		}

		if in.Title != nil {
			sess.Title = *in.Title
		}
		if in.Description != nil {
			sess.Description = *in.Description
		}
		if in.Location != nil {
			sess.Location = *in.Location
		}

		if len(entries) > 0 {
			rec := models.HistoryRecord{Timestamp: s.now(), Entries: entries}
			if err := tx.AppendHistory(ctx, sess.ID, rec); err != nil {
				return err
			}
			sess.History = append(sess.History, rec)
		}

		if err := tx.SaveSession(ctx, sess); err != nil {
			return err
		}
		updated = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a session and releases every resource allocation it holds,
// symmetrically with a normal update to an empty resource list.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx TxStore) error {
		sess, err := tx.GetSessionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		deltas := resourceDeltas(sess.Resources, nil)
		if _, err := s.applyResourceDeltas(ctx, tx, deltas); err != nil {
			return err
		}
		return tx.DeleteSession(ctx, id)
	})
}

// DeleteByEvent removes every session under an event and releases all of
// their resource holdings in one transaction. Event deletion goes through
// here first so reservations never outlive their sessions.
func (s *Service) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx TxStore) error {
		list, err := tx.ListByEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		var deltas []resourceDelta
		for i := range list {
			deltas = append(deltas, resourceDeltas(list[i].Resources, nil)...)
		}
		if _, err := s.applyResourceDeltas(ctx, tx, deltas); err != nil {
			return err
		}
		for i := range list {
			if err := tx.DeleteSession(ctx, list[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyResourceDeltas locks the referenced resources, validates every delta
// against available capacity, then commits all usage changes. No delta is
// committed unless all pass.
func (s *Service) applyResourceDeltas(ctx context.Context, tx TxStore, deltas []resourceDelta) (map[uuid.UUID]*models.Resource, error) {
	if len(deltas) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.ResourceID)
	}
	resourceByID, err := tx.GetResourcesForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, d := range deltas {
		r, ok := resourceByID[d.ResourceID]
		if !ok {
			return nil, &ResourceNotFoundError{ResourceID: d.ResourceID}
		}
		if d.Delta() > r.Available() {
			return nil, &InsufficientCapacityError{
				ResourceName: r.Name,
				Requested:    d.Delta(),
				Available:    r.Available(),
			}
		}
	}

	for _, d := range deltas {
		if d.Delta() == 0 {
			continue
		}
		r := resourceByID[d.ResourceID]
		r.UsedQuantity += d.Delta()
		if err := tx.SetResourceUsage(ctx, r.ID, r.UsedQuantity); err != nil {
			return nil, err
		}
	}
	return resourceByID, nil
}
