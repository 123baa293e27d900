package queue

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

const truthColumns = `id, chat_id, message_count, asker_id, asker_name,
	asker_username, created_at, started_at, picked_at, completed_at, attempt_count, processed, error, idempotency_key`

func scanTruthRow(rows pgx.Rows) (*types.TruthJob, error) {
	row := &types.TruthJob{}
	err := rows.Scan(
		&row.ID, &row.ChatID, &row.MessageCount,
		&row.AskerID, &row.AskerName, &row.AskerUsername,
		&row.CreatedAt, &row.StartedAt, &row.PickedAt, &row.CompletedAt,
		&row.AttemptCount, &row.Processed, &row.Error, &row.IdempotencyKey,
	)
	return row, err
}

// TruthQueue is the durable queue backing /truth requests, sharing the
// Core implementation with AskQueue but keyed on (chat_id, message_count)
// and leased for longer (default 10 minutes) since a truth summary reads
// more messages than a single ask.
type TruthQueue struct {
	core *Core[*types.TruthJob]
}

// NewTruthQueue constructs the truth_queue-backed queue.
func NewTruthQueue(pool *pgxpool.Pool, notifier interfaces.Notifier, clock interfaces.Clock, cfg Config) *TruthQueue {
	core := NewCore[*types.TruthJob](pool, notifier, clock, "truth_queue", "truth_queue_notify", cfg)
	core.Scan = scanTruthRow
	return &TruthQueue{core: core}
}

// Enqueue inserts job, deduplicating on (chat_id, message_count).
func (q *TruthQueue) Enqueue(ctx context.Context, job *types.TruthJob) (id int64, deduped bool, err error) {
	key := types.AskIdempotencyKey(job.ChatID, int64(job.MessageCount), types.JobKindTruth)
	columns := map[string]any{
		"chat_id":        job.ChatID,
		"message_count":  job.MessageCount,
		"asker_id":       job.AskerID,
		"asker_name":     job.AskerName,
		"asker_username": job.AskerUsername,
		"attempt_count":  0,
		"processed":      false,
	}
	return q.core.Enqueue(ctx, columns, key)
}

// Pick claims the next eligible job.
func (q *TruthQueue) Pick(ctx context.Context) (*types.TruthJob, bool, error) {
	return q.core.Pick(ctx, truthColumns)
}

// Complete marks job id as done.
func (q *TruthQueue) Complete(ctx context.Context, id int64) error { return q.core.Complete(ctx, id) }

// Fail records a failed attempt, returning whether it will be retried.
func (q *TruthQueue) Fail(ctx context.Context, id int64, attemptCount int, cause string) (bool, error) {
	return q.core.Fail(ctx, id, attemptCount, cause)
}

// RecoverStale reclaims or closes expired leases.
func (q *TruthQueue) RecoverStale(ctx context.Context) (recovered, closed int, err error) {
	return q.core.RecoverStale(ctx)
}

// CleanupOld deletes processed rows older than the given age in days.
func (q *TruthQueue) CleanupOld(ctx context.Context, days int) (int, error) {
	return q.core.CleanupOld(ctx, time.Duration(days)*24*time.Hour)
}

// WaitForNotification blocks for a wake-up hint or timeout.
func (q *TruthQueue) WaitForNotification(ctx context.Context, timeout time.Duration) {
	q.core.WaitForNotification(ctx, timeout)
}
