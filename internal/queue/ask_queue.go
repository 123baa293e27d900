package queue

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// askColumns lists the ask_queue columns in the fixed order used by
// both Pick's RETURNING clause and scanAskRow.
const askColumns = `id, chat_id, reply_to_message_id, question, command, asker_id, asker_name,
	asker_username, created_at, started_at, picked_at, completed_at, attempt_count, processed, error, idempotency_key`

func scanAskRow(rows pgx.Rows) (*types.AskJob, error) {
	row := &types.AskJob{}
	err := rows.Scan(
		&row.ID, &row.ChatID, &row.ReplyToMessageID, &row.Question, &row.Kind,
		&row.AskerID, &row.AskerName, &row.AskerUsername,
		&row.CreatedAt, &row.StartedAt, &row.PickedAt, &row.CompletedAt,
		&row.AttemptCount, &row.Processed, &row.Error, &row.IdempotencyKey,
	)
	return row, err
}

// AskQueue is the durable queue backing /ask and /smart requests.
type AskQueue struct {
	core *Core[*types.AskJob]
}

// NewAskQueue constructs the ask_queue-backed queue with the ask lease
// timeout from spec.md §4.1 (default 5 minutes).
func NewAskQueue(pool *pgxpool.Pool, notifier interfaces.Notifier, clock interfaces.Clock, cfg Config) *AskQueue {
	core := NewCore[*types.AskJob](pool, notifier, clock, "ask_queue", "ask_queue_notify", cfg)
	core.Scan = scanAskRow
	return &AskQueue{core: core}
}

// Enqueue inserts job, deduplicating on (chat_id, reply_to_message_id, kind).
func (q *AskQueue) Enqueue(ctx context.Context, job *types.AskJob) (id int64, deduped bool, err error) {
	key := types.AskIdempotencyKey(job.ChatID, job.ReplyToMessageID, job.Kind)
	columns := map[string]any{
		"chat_id":             job.ChatID,
		"reply_to_message_id": job.ReplyToMessageID,
		"question":            job.Question,
		"command":             string(job.Kind),
		"asker_id":            job.AskerID,
		"asker_name":          job.AskerName,
		"asker_username":      job.AskerUsername,
		"attempt_count":       0,
		"processed":           false,
	}
	return q.core.Enqueue(ctx, columns, key)
}

// Pick claims the next eligible job.
func (q *AskQueue) Pick(ctx context.Context) (*types.AskJob, bool, error) {
	return q.core.Pick(ctx, askColumns)
}

// Complete marks job id as done.
func (q *AskQueue) Complete(ctx context.Context, id int64) error { return q.core.Complete(ctx, id) }

// Fail records a failed attempt, returning whether it will be retried.
func (q *AskQueue) Fail(ctx context.Context, id int64, attemptCount int, cause string) (bool, error) {
	return q.core.Fail(ctx, id, attemptCount, cause)
}

// RecoverStale reclaims or closes expired leases.
func (q *AskQueue) RecoverStale(ctx context.Context) (recovered, closed int, err error) {
	return q.core.RecoverStale(ctx)
}

// CleanupOld deletes processed rows older than the given age in days.
func (q *AskQueue) CleanupOld(ctx context.Context, days int) (int, error) {
	return q.core.CleanupOld(ctx, time.Duration(days)*24*time.Hour)
}

// WaitForNotification blocks for a wake-up hint or timeout, whichever
// comes first; the worker still must poll via Pick afterward.
func (q *AskQueue) WaitForNotification(ctx context.Context, timeout time.Duration) {
	q.core.WaitForNotification(ctx, timeout)
}
