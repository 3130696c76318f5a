package sessions

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventure/backend/internal/models"
)

// resourceDelta is the signed quantity change for one resource between a
// session's prior and proposed allocation lists.
type resourceDelta struct {
	ResourceID  uuid.UUID
	OldQuantity int
	NewQuantity int
}

// Delta returns the signed usage change; negative releases capacity.
func (d resourceDelta) Delta() int {
	return d.NewQuantity - d.OldQuantity
}

// resourceDeltas computes per-resource changes between the old and new
// allocation lists. Deltas follow the new list's order; resources held before
// but absent from the new list come last, as releases to quantity zero.
func resourceDeltas(oldList, newList []models.SessionResource) []resourceDelta {
	oldByID := make(map[uuid.UUID]int, len(oldList))
	for _, r := range oldList {
		oldByID[r.ResourceID] = r.Quantity
	}
	newIDs := make(map[uuid.UUID]struct{}, len(newList))

	deltas := make([]resourceDelta, 0, len(oldList)+len(newList))
	for _, r := range newList {
		newIDs[r.ResourceID] = struct{}{}
		deltas = append(deltas, resourceDelta{
			ResourceID:  r.ResourceID,
			OldQuantity: oldByID[r.ResourceID],
			NewQuantity: r.Quantity,
		})
	}
	for _, r := range oldList {
		if _, kept := newIDs[r.ResourceID]; !kept {
			deltas = append(deltas, resourceDelta{
				ResourceID:  r.ResourceID,
				OldQuantity: r.Quantity,
				NewQuantity: 0,
			})
		}
	}
	return deltas
}

// validateResourceList rejects non-positive quantities and duplicate IDs.
func validateResourceList(list []models.SessionResource) error {
	seen := make(map[uuid.UUID]struct{}, len(list))
	for _, r := range list {
		if r.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be >= 1", ErrInvalidResources)
		}
		if _, dup := seen[r.ResourceID]; dup {
			return fmt.Errorf("%w: duplicate resource %s", ErrInvalidResources, r.ResourceID)
		}
		seen[r.ResourceID] = struct{}{}
	}
	return nil
}

func resourceEntry(name string, d resourceDelta) models.HistoryEntry {
	return models.HistoryEntry{
		Kind:   models.HistoryUpdateResource,
		Detail: fmt.Sprintf("Resource %q changed from %d → %d", name, d.OldQuantity, d.NewQuantity),
	}
}

func statusEntry(oldStatus, newStatus models.SessionStatus) models.HistoryEntry {
	return models.HistoryEntry{
		Kind:   models.HistoryUpdateStatus,
		Detail: fmt.Sprintf("Status changed from %q → %q", oldStatus.Label(), newStatus.Label()),
	}
}

// formatTime renders a time for history text as dd/mm/yyyy hh:mm, "-" when unset.
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

// sameInstant compares two optional times at millisecond precision; nil means
// no time set.
func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UnixMilli() == b.UnixMilli()
}

// timeEntries produces up to two entries, one per changed bound of the schedule.
func timeEntries(oldStart, oldEnd, newStart, newEnd *time.Time) []models.HistoryEntry {
	var entries []models.HistoryEntry
	if !sameInstant(oldStart, newStart) {
		entries = append(entries, models.HistoryEntry{
			Kind:   models.HistoryUpdateTime,
			Detail: fmt.Sprintf("Start time changed from %s → %s", formatTime(oldStart), formatTime(newStart)),
		})
	}
	if !sameInstant(oldEnd, newEnd) {
		entries = append(entries, models.HistoryEntry{
			Kind:   models.HistoryUpdateTime,
			Detail: fmt.Sprintf("End time changed from %s → %s", formatTime(oldEnd), formatTime(newEnd)),
		})
	}
	return entries
}

// staffEntries produces at most two entries: one listing added staff, one
// listing removed staff. Names fall back to the raw ID when unresolved.
func staffEntries(oldIDs, newIDs []uuid.UUID, names map[uuid.UUID]string) []models.HistoryEntry {
	oldSet := make(map[uuid.UUID]struct{}, len(oldIDs))
	for _, id := range oldIDs {
		oldSet[id] = struct{}{}
	}
	newSet := make(map[uuid.UUID]struct{}, len(newIDs))
	for _, id := range newIDs {
		newSet[id] = struct{}{}
	}

	var added, removed []uuid.UUID
	for _, id := range newIDs {
		if _, ok := oldSet[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range oldIDs {
		if _, ok := newSet[id]; !ok {
			removed = append(removed, id)
		}
	}

	var entries []models.HistoryEntry
	if len(added) > 0 {
		entries = append(entries, models.HistoryEntry{
			Kind:   models.HistoryUpdateStaff,
			Detail: "Added staff: " + joinNames(added, names),
		})
	}
	if len(removed) > 0 {
		entries = append(entries, models.HistoryEntry{
			Kind:   models.HistoryUpdateStaff,
			Detail: "Removed staff: " + joinNames(removed, names),
		})
	}
	return entries
}

func joinNames(ids []uuid.UUID, names map[uuid.UUID]string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok && name != "" {
			parts = append(parts, name)
		} else {
			parts = append(parts, id.String())
		}
	}
	return strings.Join(parts, ", ")
}

// staffUnion returns the deduplicated union of two staff ID lists, sorted for
// a stable lookup order.
func staffUnion(a, b []uuid.UUID) []uuid.UUID {
	set := make(map[uuid.UUID]struct{}, len(a)+len(b))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
