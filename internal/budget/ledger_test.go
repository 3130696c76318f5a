package budget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventure/backend/internal/models"
)

func newTestLedger(store *memStore) *Ledger {
	l := NewLedger(store, nil)
	l.now = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	return l
}

// ledgerInvariant checks that the stored balance equals the sum of all
// transaction deltas plus the initial balance.
func ledgerInvariant(t *testing.T, store *memStore, orgID uuid.UUID, initial int64) {
	t.Helper()
	var sum int64
	for _, tr := range store.transactions {
		if tr.OrganizationID == orgID {
			sum += tr.Delta()
		}
	}
	assert.Equal(t, initial+sum, store.orgs[orgID].CurrentBudgetCents)
}

func TestCreateIncomeAndExpense(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(10_000)
	ledger := newTestLedger(store)

	income, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    5_000,
		Description:    "Sponsorship",
		OrganizationID: org,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15_000), store.orgs[org].CurrentBudgetCents)
	assert.Equal(t, int64(5_000), income.Delta())

	expense, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    2_500,
		Description:    "Venue deposit",
		OrganizationID: org,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12_500), store.orgs[org].CurrentBudgetCents)
	assert.Equal(t, int64(-2_500), expense.Delta())

	ledgerInvariant(t, store, org, 10_000)
}

func TestCreateExpenseOverdrawRejected(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(1_000)
	ledger := newTestLedger(store)

	_, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    1_001,
		OrganizationID: org,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing was written.
	assert.Equal(t, int64(1_000), store.orgs[org].CurrentBudgetCents)
	assert.Empty(t, store.transactions)
}

func TestCreateExpenseExactBalanceAllowed(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(1_000)
	ledger := newTestLedger(store)

	_, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    1_000,
		OrganizationID: org,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), store.orgs[org].CurrentBudgetCents)
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(1_000)
	ledger := newTestLedger(store)

	_, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    0,
		OrganizationID: org,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateUnknownOrganization(t *testing.T) {
	store := newMemStore()
	ledger := newTestLedger(store)

	_, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    100,
		OrganizationID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestUpdateReconcilesBalance(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(10_000)
	ledger := newTestLedger(store)

	// Balance after the expense: 100.00 - 30.00 = 70.00.
	tr, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    3_000,
		OrganizationID: org,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7_000), store.orgs[org].CurrentBudgetCents)

	// Shrinking the expense to 50.00: 70.00 + (-50.00 - (-30.00)) = 50.00.
	newAmount := int64(5_000)
	updated, err := ledger.Update(context.Background(), tr.ID, UpdateInput{AmountCents: &newAmount})
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), updated.AmountCents)
	assert.Equal(t, int64(5_000), store.orgs[org].CurrentBudgetCents)

	ledgerInvariant(t, store, org, 10_000)
}

func TestUpdateOverdrawRejectedAtomically(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(10_000)
	ledger := newTestLedger(store)

	tr, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    3_000,
		OrganizationID: org,
	})
	require.NoError(t, err)

	// Raising the expense to 150.00 would leave 70.00 + (-150.00 + 30.00) < 0.
	newAmount := int64(15_000)
	_, err = ledger.Update(context.Background(), tr.ID, UpdateInput{AmountCents: &newAmount})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Neither the amount nor the balance changed.
	stored, err := ledger.Get(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000), stored.AmountCents)
	assert.Equal(t, int64(7_000), store.orgs[org].CurrentBudgetCents)
}

func TestUpdateTypeFlipReconciles(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(10_000)
	ledger := newTestLedger(store)

	tr, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    3_000,
		OrganizationID: org,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7_000), store.orgs[org].CurrentBudgetCents)

	// Expense -30.00 becomes income +30.00, so the balance moves by +60.00.
	income := models.TransactionIncome
	updated, err := ledger.Update(context.Background(), tr.ID, UpdateInput{Type: &income})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionIncome, updated.Type)
	assert.Equal(t, int64(13_000), store.orgs[org].CurrentBudgetCents)

	ledgerInvariant(t, store, org, 10_000)
}

func TestDeleteAppliesInverseDelta(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(10_000)
	ledger := newTestLedger(store)

	expense, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    4_000,
		OrganizationID: org,
	})
	require.NoError(t, err)
	require.Equal(t, int64(6_000), store.orgs[org].CurrentBudgetCents)

	// Deleting the expense restores the 40.00.
	require.NoError(t, ledger.Delete(context.Background(), expense.ID))
	assert.Equal(t, int64(10_000), store.orgs[org].CurrentBudgetCents)

	income, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    2_000,
		OrganizationID: org,
	})
	require.NoError(t, err)
	require.Equal(t, int64(12_000), store.orgs[org].CurrentBudgetCents)

	// Deleting income takes it back out.
	require.NoError(t, ledger.Delete(context.Background(), income.ID))
	assert.Equal(t, int64(10_000), store.orgs[org].CurrentBudgetCents)

	ledgerInvariant(t, store, org, 10_000)
}

func TestDeleteIncomeMayGoNegative(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(0)
	ledger := newTestLedger(store)

	income, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    5_000,
		OrganizationID: org,
	})
	require.NoError(t, err)

	_, err = ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionExpense,
		AmountCents:    3_000,
		OrganizationID: org,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2_000), store.orgs[org].CurrentBudgetCents)

	// Removing the income leaves the spent expense standing: 2000 - 5000.
	require.NoError(t, ledger.Delete(context.Background(), income.ID))
	assert.Equal(t, int64(-3_000), store.orgs[org].CurrentBudgetCents)

	ledgerInvariant(t, store, org, 0)
}

func TestFindAllFiltersAndSummarizesSameSet(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(100_000)
	eventID := uuid.New()
	store.eventNames[eventID] = "Spring Gala"
	ledger := newTestLedger(store)

	mustCreate := func(typ models.TransactionType, amount int64, date time.Time, event *uuid.UUID) {
		t.Helper()
		_, err := ledger.Create(context.Background(), CreateInput{
			Type:           typ,
			AmountCents:    amount,
			Date:           date,
			OrganizationID: org,
			EventID:        event,
		})
		require.NoError(t, err)
	}

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	mustCreate(models.TransactionIncome, 10_000, jan, &eventID)
	mustCreate(models.TransactionExpense, 4_000, feb, &eventID)
	mustCreate(models.TransactionIncome, 7_000, mar, nil)

	t.Run("unfiltered", func(t *testing.T) {
		result, err := ledger.FindAll(context.Background(), Filter{OrganizationID: org})
		require.NoError(t, err)
		require.Len(t, result.Transactions, 3)
		// Newest first.
		assert.Equal(t, mar, result.Transactions[0].Date)
		assert.Equal(t, "Spring Gala", result.Transactions[2].EventName)
		assert.Equal(t, int64(17_000), result.Summary.TotalIncomeCents)
		assert.Equal(t, int64(4_000), result.Summary.TotalExpenseCents)
		assert.Equal(t, int64(13_000), result.Summary.BalanceCents)
	})

	t.Run("by event", func(t *testing.T) {
		result, err := ledger.FindAll(context.Background(), Filter{OrganizationID: org, EventID: &eventID})
		require.NoError(t, err)
		require.Len(t, result.Transactions, 2)
		assert.Equal(t, int64(10_000), result.Summary.TotalIncomeCents)
		assert.Equal(t, int64(4_000), result.Summary.TotalExpenseCents)
		assert.Equal(t, int64(6_000), result.Summary.BalanceCents)
	})

	t.Run("by date range inclusive", func(t *testing.T) {
		result, err := ledger.FindAll(context.Background(), Filter{OrganizationID: org, StartDate: &jan, EndDate: &feb})
		require.NoError(t, err)
		require.Len(t, result.Transactions, 2)
		assert.Equal(t, int64(6_000), result.Summary.BalanceCents)
	})
}

func TestSummaryUsesCache(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(10_000)
	cache := &stubCache{entries: map[string]models.BudgetSummary{}}
	ledger := NewLedger(store, cache)

	_, err := ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    5_000,
		OrganizationID: org,
	})
	require.NoError(t, err)

	s, err := ledger.Summary(context.Background(), org, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), s.TotalIncomeCents)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from cache.
	_, err = ledger.Summary(context.Background(), org, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	// A mutation invalidates the organization-wide entry.
	_, err = ledger.Create(context.Background(), CreateInput{
		Type:           models.TransactionIncome,
		AmountCents:    1_000,
		OrganizationID: org,
	})
	require.NoError(t, err)

	s, err = ledger.Summary(context.Background(), org, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000), s.TotalIncomeCents)
}

func TestConcurrentCreatesKeepInvariant(t *testing.T) {
	store := newMemStore()
	org := store.addOrg(0)
	ledger := newTestLedger(store)

	// The in-memory store commits sequentially per call; this exercises the
	// ledger path under concurrent callers the way handlers invoke it.
	var mu sync.Mutex
	serialized := &lockedStore{inner: store, mu: &mu}
	ledger.store = serialized

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Create(context.Background(), CreateInput{
				Type:           models.TransactionIncome,
				AmountCents:    100,
				OrganizationID: org,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2_000), store.orgs[org].CurrentBudgetCents)
	ledgerInvariant(t, store, org, 0)
}

// stubCache counts cache traffic for assertions.
type stubCache struct {
	entries map[string]models.BudgetSummary
	hits    int
	sets    int
}

func (c *stubCache) key(orgID uuid.UUID, eventID *uuid.UUID) string {
	if eventID != nil {
		return orgID.String() + ":" + eventID.String()
	}
	return orgID.String()
}

func (c *stubCache) Get(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) (models.BudgetSummary, bool) {
	s, ok := c.entries[c.key(orgID, eventID)]
	if ok {
		c.hits++
	}
	return s, ok
}

func (c *stubCache) Set(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID, s models.BudgetSummary) {
	c.sets++
	c.entries[c.key(orgID, eventID)] = s
}

func (c *stubCache) Invalidate(ctx context.Context, orgID uuid.UUID, eventID *uuid.UUID) {
	delete(c.entries, c.key(orgID, eventID))
}

// lockedStore serializes WithinTx calls, standing in for row locks.
type lockedStore struct {
	inner *memStore
	mu    *sync.Mutex
}

func (s *lockedStore) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.WithinTx(ctx, fn)
}

func (s *lockedStore) GetTransaction(ctx context.Context, id uuid.UUID) (*models.BudgetTransaction, error) {
	return s.inner.GetTransaction(ctx, id)
}

func (s *lockedStore) ListTransactions(ctx context.Context, f Filter) ([]models.TransactionWithEvent, error) {
	return s.inner.ListTransactions(ctx, f)
}

func (s *lockedStore) Summarize(ctx context.Context, f Filter) (models.BudgetSummary, error) {
	return s.inner.Summarize(ctx, f)
}
