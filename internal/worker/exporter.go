package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventure/backend/internal/budget"
	"github.com/eventure/backend/internal/exports"
	"github.com/eventure/backend/internal/models"
	"github.com/eventure/backend/pkg/queue"
	"github.com/eventure/backend/pkg/storage"
)

// exportStore is the subset of the exports repository the worker uses.
type exportStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReportExport, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, s3Key string, sizeBytes int64) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// ExportProcessor consumes report export jobs and builds CSV budget reports
// in S3.
type ExportProcessor struct {
	queue   *queue.Queue
	exports exportStore
	ledger  *budget.Repository
	s3      *storage.S3
	logger  *zap.Logger
}

// NewExportProcessor creates an export processor.
func NewExportProcessor(q *queue.Queue, exportRepo exportStore, ledgerRepo *budget.Repository, s3 *storage.S3, logger *zap.Logger) *ExportProcessor {
	return &ExportProcessor{queue: q, exports: exportRepo, ledger: ledgerRepo, s3: s3, logger: logger}
}

// Run consumes jobs until ctx is cancelled. Transient failures are retried
// through the queue; permanent ones mark the export failed.
func (p *ExportProcessor) Run(ctx context.Context) error {
	p.logger.Info("export worker started")
	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("export worker stopping")
				return nil
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		if job.Type != queue.JobTypeReportExport {
			p.logger.Warn("unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
			continue
		}
		if err := p.process(ctx, job); err != nil {
			p.logger.Error("export job failed", zap.Error(err), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
			deadLettered, retryErr := p.queue.Retry(ctx, job)
			if retryErr != nil {
				p.logger.Error("retry failed", zap.Error(retryErr), zap.String("job_id", job.ID))
			}
			if deadLettered {
				p.markDeadLettered(ctx, job)
			}
		}
	}
}

// markDeadLettered marks an export failed once its job lands in the DLQ, so
// the row does not report pending forever.
func (p *ExportProcessor) markDeadLettered(ctx context.Context, job *queue.Job) {
	var payload queue.ReportExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Warn("invalid dead-lettered payload", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if err := p.exports.MarkFailed(ctx, payload.ExportID, "retries exhausted"); err != nil {
		p.logger.Error("mark export failed", zap.Error(err), zap.String("export_id", payload.ExportID.String()))
	}
}

func (p *ExportProcessor) process(ctx context.Context, job *queue.Job) error {
	var payload queue.ReportExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		// Malformed payloads never succeed; drop without retry.
		p.logger.Warn("invalid export payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	export, err := p.exports.GetByID(ctx, payload.ExportID)
	if err != nil {
		if errors.Is(err, exports.ErrExportNotFound) {
			p.logger.Warn("export row missing", zap.String("export_id", payload.ExportID.String()))
			return nil
		}
		return err
	}
	if export.Status == models.ExportStatusCompleted {
		return nil
	}

	transactions, err := p.ledger.ListTransactions(ctx, budget.Filter{
		OrganizationID: export.OrganizationID,
		EventID:        export.EventID,
		StartDate:      export.StartDate,
		EndDate:        export.EndDate,
	})
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	summary, err := p.ledger.Summarize(ctx, budget.Filter{
		OrganizationID: export.OrganizationID,
		EventID:        export.EventID,
		StartDate:      export.StartDate,
		EndDate:        export.EndDate,
	})
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}

	body, err := buildCSV(transactions, summary)
	if err != nil {
		if markErr := p.exports.MarkFailed(ctx, export.ID, err.Error()); markErr != nil {
			p.logger.Error("mark export failed", zap.Error(markErr))
		}
		return nil
	}

	key := storage.ExportKey(export.OrganizationID.String(), export.ID.String())
	if _, err := p.s3.Upload(ctx, p.s3.ExportsBucket(), key, "text/csv", bytes.NewReader(body), int64(len(body)), false); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	if err := p.exports.MarkCompleted(ctx, export.ID, key, int64(len(body))); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.logger.Info("export completed",
		zap.String("export_id", export.ID.String()),
		zap.String("key", key),
		zap.Int("transactions", len(transactions)))
	return nil
}

// buildCSV renders the transaction rows followed by a summary block. Amounts
// are formatted as decimal currency units.
func buildCSV(transactions []models.TransactionWithEvent, summary models.BudgetSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Date", "Type", "Amount", "Description", "Event"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, t := range transactions {
		row := []string{
			t.Date.Format("02/01/2006 15:04"),
			t.Type.Label(),
			formatCents(t.AmountCents),
			t.Description,
			t.EventName,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	rows := [][]string{
		{},
		{"Total income", formatCents(summary.TotalIncomeCents)},
		{"Total expense", formatCents(summary.TotalExpenseCents)},
		{"Balance", formatCents(summary.BalanceCents)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}
