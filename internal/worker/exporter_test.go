package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventure/backend/internal/exports"
	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/queue"
)

func TestBuildCSV(t *testing.T) {
	date := time.Date(2026, 4, 20, 14, 30, 0, 0, time.UTC)
	transactions := []models.TransactionWithEvent{
		{
			BudgetTransaction: models.BudgetTransaction{
				Type:        models.TransactionIncome,
				AmountCents: 150_050,
				Description: "Ticket sales",
				Date:        date,
			},
			EventName: "Spring Gala",
		},
		{
			BudgetTransaction: models.BudgetTransaction{
				Type:        models.TransactionExpense,
				AmountCents: 9_900,
				Description: "Catering, day one",
				Date:        date.Add(-24 * time.Hour),
			},
		},
	}
	summary := models.BudgetSummary{
		TotalIncomeCents:  150_050,
		TotalExpenseCents: 9_900,
		BalanceCents:      140_150,
	}

	body, err := buildCSV(transactions, summary)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Date,Type,Amount,Description,Event", lines[0])
	assert.Equal(t, "20/04/2026 14:30,Income,1500.50,Ticket sales,Spring Gala", lines[1])
	// The comma in the description is quoted by the CSV writer.
	assert.Equal(t, `19/04/2026 14:30,Expense,99.00,"Catering, day one",`, lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "Total income,1500.50", lines[4])
	assert.Equal(t, "Total expense,99.00", lines[5])
	assert.Equal(t, "Balance,1401.50", lines[6])
}

func TestBuildCSVEmpty(t *testing.T) {
	body, err := buildCSV(nil, models.BudgetSummary{})
	require.NoError(t, err)
	assert.Contains(t, string(body), "Balance,0.00")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.00", formatCents(0))
	assert.Equal(t, "0.05", formatCents(5))
	assert.Equal(t, "1.00", formatCents(100))
	assert.Equal(t, "12.34", formatCents(1234))
	assert.Equal(t, "-3.50", formatCents(-350))
}

// stubExportStore records MarkFailed calls.
type stubExportStore struct {
	failedID     uuid.UUID
	failedReason string
	failedCalls  int
}

func (s *stubExportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportExport, error) {
	return nil, exports.ErrExportNotFound
}

func (s *stubExportStore) MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, sizeBytes int64) error {
	return nil
}

func (s *stubExportStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	s.failedID = id
	s.failedReason = reason
	s.failedCalls++
	return nil
}

func TestDeadLetteredJobMarksExportFailed(t *testing.T) {
	store := &stubExportStore{}
	p := NewExportProcessor(nil, store, nil, nil, zap.NewNop())

	exportID := uuid.New()
	payload, err := json.Marshal(queue.ReportExportPayload{ExportID: exportID, OrganizationID: uuid.New()})
	require.NoError(t, err)
	job := &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeReportExport, Payload: payload, Attempt: queue.MaxRetries}

	p.markDeadLettered(context.Background(), job)

	assert.Equal(t, 1, store.failedCalls)
	assert.Equal(t, exportID, store.failedID)
	assert.Equal(t, "retries exhausted", store.failedReason)
}

func TestDeadLetteredJobWithBadPayload(t *testing.T) {
	store := &stubExportStore{}
	p := NewExportProcessor(nil, store, nil, nil, zap.NewNop())

	job := &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeReportExport, Payload: []byte("not json"), Attempt: queue.MaxRetries}
	p.markDeadLettered(context.Background(), job)

	assert.Zero(t, store.failedCalls)
}
