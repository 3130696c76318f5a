package sessions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventure/backend/internal/models"
)

func TestResourceDeltas(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	old := []models.SessionResource{
		{ResourceID: a, Quantity: 3},
		{ResourceID: b, Quantity: 5},
	}
	proposed := []models.SessionResource{
		{ResourceID: b, Quantity: 2},
		{ResourceID: c, Quantity: 4},
	}

	deltas := resourceDeltas(old, proposed)
	require.Len(t, deltas, 3)

	// New-list order first, then releases for dropped resources.
	assert.Equal(t, resourceDelta{ResourceID: b, OldQuantity: 5, NewQuantity: 2}, deltas[0])
	assert.Equal(t, resourceDelta{ResourceID: c, OldQuantity: 0, NewQuantity: 4}, deltas[1])
	assert.Equal(t, resourceDelta{ResourceID: a, OldQuantity: 3, NewQuantity: 0}, deltas[2])

	assert.Equal(t, -3, deltas[0].Delta())
	assert.Equal(t, 4, deltas[1].Delta())
	assert.Equal(t, -3, deltas[2].Delta())
}

func TestResourceDeltasEmptyLists(t *testing.T) {
	a := uuid.New()

	assert.Empty(t, resourceDeltas(nil, nil))

	fromScratch := resourceDeltas(nil, []models.SessionResource{{ResourceID: a, Quantity: 2}})
	require.Len(t, fromScratch, 1)
	assert.Equal(t, 2, fromScratch[0].Delta())

	releaseAll := resourceDeltas([]models.SessionResource{{ResourceID: a, Quantity: 2}}, nil)
	require.Len(t, releaseAll, 1)
	assert.Equal(t, -2, releaseAll[0].Delta())
}

func TestValidateResourceList(t *testing.T) {
	a := uuid.New()

	assert.NoError(t, validateResourceList(nil))
	assert.NoError(t, validateResourceList([]models.SessionResource{{ResourceID: a, Quantity: 1}}))

	err := validateResourceList([]models.SessionResource{{ResourceID: a, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidResources)

	err = validateResourceList([]models.SessionResource{
		{ResourceID: a, Quantity: 1},
		{ResourceID: a, Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrInvalidResources)
}

func TestResourceEntry(t *testing.T) {
	d := resourceDelta{OldQuantity: 2, NewQuantity: 5}
	e := resourceEntry("Projector", d)
	assert.Equal(t, models.HistoryUpdateResource, e.Kind)
	assert.Equal(t, `Resource "Projector" changed from 2 → 5`, e.Detail)
}

func TestStatusEntry(t *testing.T) {
	e := statusEntry(models.SessionStatusPlanning, models.SessionStatusDoing)
	assert.Equal(t, models.HistoryUpdateStatus, e.Kind)
	assert.Equal(t, `Status changed from "Not started" → "In progress"`, e.Detail)
}

func TestTimeEntries(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	newEnd := end.Add(30 * time.Minute)

	t.Run("no change", func(t *testing.T) {
		assert.Empty(t, timeEntries(&start, &end, &start, &end))
	})

	t.Run("sub-millisecond drift ignored", func(t *testing.T) {
		drifted := start.Add(200 * time.Microsecond)
		assert.Empty(t, timeEntries(&start, &end, &drifted, &end))
	})

	t.Run("end changed", func(t *testing.T) {
		entries := timeEntries(&start, &end, &start, &newEnd)
		require.Len(t, entries, 1)
		assert.Equal(t, models.HistoryUpdateTime, entries[0].Kind)
		assert.Equal(t, "End time changed from 14/03/2026 11:30 → 14/03/2026 12:00", entries[0].Detail)
	})

	t.Run("both cleared", func(t *testing.T) {
		entries := timeEntries(&start, &end, nil, nil)
		require.Len(t, entries, 2)
		assert.Equal(t, "Start time changed from 14/03/2026 09:30 → -", entries[0].Detail)
		assert.Equal(t, "End time changed from 14/03/2026 11:30 → -", entries[1].Detail)
	})

	t.Run("set from unset", func(t *testing.T) {
		entries := timeEntries(nil, nil, &start, nil)
		require.Len(t, entries, 1)
		assert.Equal(t, "Start time changed from - → 14/03/2026 09:30", entries[0].Detail)
	})
}

func TestStaffEntries(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	names := map[uuid.UUID]string{alice: "Alice Nguyen", bob: "Bob Tran"}

	t.Run("added and removed", func(t *testing.T) {
		entries := staffEntries([]uuid.UUID{alice, bob}, []uuid.UUID{bob, carol}, names)
		require.Len(t, entries, 2)
		assert.Equal(t, models.HistoryUpdateStaff, entries[0].Kind)
		// Carol has no resolvable name, so the raw ID is used.
		assert.Equal(t, "Added staff: "+carol.String(), entries[0].Detail)
		assert.Equal(t, "Removed staff: Alice Nguyen", entries[1].Detail)
	})

	t.Run("no change", func(t *testing.T) {
		assert.Empty(t, staffEntries([]uuid.UUID{alice}, []uuid.UUID{alice}, names))
	})

	t.Run("order change only", func(t *testing.T) {
		assert.Empty(t, staffEntries([]uuid.UUID{alice, bob}, []uuid.UUID{bob, alice}, names))
	})
}

func TestStaffUnion(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	union := staffUnion([]uuid.UUID{a, b}, []uuid.UUID{b, c})
	assert.Len(t, union, 3)
	assert.ElementsMatch(t, []uuid.UUID{a, b, c}, union)
}
