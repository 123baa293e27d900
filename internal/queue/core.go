// Package queue implements the durable, table-backed FIFO queue
// described in spec.md §4.1: atomic lease-based pick with skip-locked
// semantics, exponential-backoff retry, idempotent enqueue, stale-lease
// recovery, and a best-effort notification wake-up.
//
// Core is generic over the row shape so ask_queue and truth_queue share
// one implementation of pick/fail/complete/recover/cleanup while each
// keeps its own column set for enqueue and its own scan function.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Config carries the lease/retry tunables for one queue instance.
// Defaults come from config.QueueConfig but lease timeouts differ
// per job kind (spec.md §4.1: ask=5m, truth=10m).
type Config struct {
	LeaseTimeout   time.Duration
	MaxAttempts    int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
}

// Core is the shared pick/fail/complete/recover/cleanup implementation
// over a single queue table. T is the caller's row struct; Scan decodes
// one returned row.
type Core[T any] struct {
	pool     *pgxpool.Pool
	notifier interfaces.Notifier
	clock    interfaces.Clock
	channel  string
	table    string
	cfg      Config
	Scan     func(pgx.Rows) (T, error)
}

// NewCore constructs a queue core over table, notifying on channel.
// notifier may be nil, in which case Notify is skipped and the queue
// relies purely on the caller's own polling cadence.
func NewCore[T any](pool *pgxpool.Pool, notifier interfaces.Notifier, clock interfaces.Clock,
	table, channel string, cfg Config,
) *Core[T] {
	if clock == nil {
		clock = interfaces.SystemClock{}
	}
	return &Core[T]{pool: pool, notifier: notifier, clock: clock, channel: channel, table: table, cfg: cfg}
}

// Enqueue inserts a new row built from columns, adding created_at and
// the supplied idempotencyKey. A partial unique index on
// (idempotency_key) WHERE processed = false makes the insert a no-op
// when an identical in-flight request already exists; deduped reports
// that case so the caller never double-answers a duplicate ask.
func (c *Core[T]) Enqueue(ctx context.Context, columns map[string]any, idempotencyKey string) (id int64, deduped bool, err error) {
	columns["idempotency_key"] = idempotencyKey
	columns["created_at"] = c.clock.Now().UTC()

	cols := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	i := 1
	for k, v := range columns {
		cols = append(cols, k)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
		args = append(args, v)
		i++
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)
		 ON CONFLICT (idempotency_key) WHERE processed = false DO NOTHING
		 RETURNING id`,
		c.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	err = c.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, apperr.New(apperr.KindDatabaseUnavailable, "queue.enqueue", err)
	}

	if c.notifier != nil {
		if nerr := c.notifier.Notify(ctx, c.channel, strconv.FormatInt(id, 10)); nerr != nil {
			logger.Warn(ctx, "queue notify failed", "table", c.table, "id", id, "error", nerr.Error())
		}
	}
	return id, false, nil
}

// pickQuery builds the atomic claim-and-return statement. The subquery's
// FOR UPDATE SKIP LOCKED ensures concurrent pickers never observe the
// same row: one acquires the row lock, the rest skip past it.
func (c *Core[T]) pickQuery(returningCols string) string {
	return fmt.Sprintf(`
		UPDATE %s
		SET started_at = $1, picked_at = $1, attempt_count = attempt_count + 1
		WHERE id = (
			SELECT id FROM %s
			WHERE processed = false
			  AND attempt_count < $2
			  AND (started_at IS NULL OR started_at < $3)
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING %s`, c.table, c.table, returningCols)
}

// Pick claims the oldest eligible row (pending, under attempt budget,
// with an expired or absent lease) and returns it decoded via Scan. It
// returns ok=false when the queue has nothing eligible right now.
func (c *Core[T]) Pick(ctx context.Context, returningCols string) (row T, ok bool, err error) {
	now := c.clock.Now().UTC()
	leaseDeadline := now.Add(-c.cfg.LeaseTimeout)

	rows, err := c.pool.Query(ctx, c.pickQuery(returningCols), now, c.cfg.MaxAttempts, leaseDeadline)
	if err != nil {
		return row, false, apperr.New(apperr.KindDatabaseUnavailable, "queue.pick", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return row, false, nil
	}
	row, err = c.Scan(rows)
	if err != nil {
		return row, false, apperr.New(apperr.KindDatabaseUnavailable, "queue.pick.scan", err)
	}
	return row, true, nil
}

// Complete marks id as processed with no error.
func (c *Core[T]) Complete(ctx context.Context, id int64) error {
	now := c.clock.Now().UTC()
	_, err := c.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET processed = true, completed_at = $1 WHERE id = $2`, c.table), now, id)
	if err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "queue.complete", err)
	}
	return nil
}

// Fail records a failed attempt. When attemptCount is still under the
// budget, the row is rescheduled after an exponential backoff delay by
// moving started_at into the past by (LeaseTimeout - backoff), so it
// becomes pick-eligible again once backoff has elapsed. Once the
// budget is exhausted the row is closed with a "[DEAD]" marker and
// willRetry is false so the caller can notify the user.
func (c *Core[T]) Fail(ctx context.Context, id int64, attemptCount int, cause string) (willRetry bool, err error) {
	now := c.clock.Now().UTC()
	if attemptCount < c.cfg.MaxAttempts {
		backoff := BackoffDelay(attemptCount, c.cfg.BaseRetryDelay, c.cfg.MaxRetryDelay)
		rescheduleAt := now.Add(-c.cfg.LeaseTimeout + backoff)
		_, err = c.pool.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET started_at = $1, error = $2 WHERE id = $3`, c.table),
			rescheduleAt, cause, id)
		if err != nil {
			return false, apperr.New(apperr.KindDatabaseUnavailable, "queue.fail.retry", err)
		}
		return true, nil
	}

	_, err = c.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET processed = true, completed_at = $1, error = $2 WHERE id = $3`, c.table),
		now, "[DEAD] "+cause, id)
	if err != nil {
		return false, apperr.New(apperr.KindDatabaseUnavailable, "queue.fail.close", err)
	}
	return false, nil
}

// RecoverStale returns abandoned leases to pending and permanently
// closes rows that have exhausted their attempt budget while leased.
// A crashed worker leaves started_at set with no completion; this is
// the only mechanism that reclaims that row (notification delivery is
// best-effort and must never be the sole trigger).
func (c *Core[T]) RecoverStale(ctx context.Context) (recovered, closed int, err error) {
	now := c.clock.Now().UTC()
	deadline := now.Add(-c.cfg.LeaseTimeout)

	recTag, err := c.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET started_at = NULL, picked_at = NULL
		 WHERE processed = false AND started_at < $1 AND attempt_count < $2`, c.table),
		deadline, c.cfg.MaxAttempts)
	if err != nil {
		return 0, 0, apperr.New(apperr.KindDatabaseUnavailable, "queue.recover_stale.reopen", err)
	}

	closeTag, err := c.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET processed = true, completed_at = $1, error = '[DEAD] attempts exhausted'
		 WHERE processed = false AND started_at < $2 AND attempt_count >= $3`, c.table),
		now, deadline, c.cfg.MaxAttempts)
	if err != nil {
		return int(recTag.RowsAffected()), 0, apperr.New(apperr.KindDatabaseUnavailable, "queue.recover_stale.close", err)
	}

	return int(recTag.RowsAffected()), int(closeTag.RowsAffected()), nil
}

// CleanupOld deletes processed rows older than olderThan, bounding
// table growth. It never touches rows that are still pending.
func (c *Core[T]) CleanupOld(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := c.clock.Now().UTC().Add(-olderThan)
	tag, err := c.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE processed = true AND completed_at < $1`, c.table), cutoff)
	if err != nil {
		return 0, apperr.New(apperr.KindDatabaseUnavailable, "queue.cleanup_old", err)
	}
	return int(tag.RowsAffected()), nil
}

// WaitForNotification blocks until a hint arrives on the queue's
// channel or timeout elapses, whichever comes first. Waking up is
// advisory only: callers must still poll via Pick.
func (c *Core[T]) WaitForNotification(ctx context.Context, timeout time.Duration) {
	if c.notifier == nil {
		select {
		case <-ctx.Done():
		case <-time.After(timeout):
		}
		return
	}

	stream, err := c.notifier.Listen(ctx, c.channel)
	if err != nil {
		logger.Warn(ctx, "queue listen failed, falling back to timer", "table", c.table, "error", err.Error())
		select {
		case <-ctx.Done():
		case <-time.After(timeout):
		}
		return
	}

	select {
	case <-ctx.Done():
	case <-stream:
		// Drain any further buffered hints without blocking; they are
		// just a hint to poll sooner, not a queue of work items.
		for {
			select {
			case <-stream:
				continue
			default:
				return
			}
		}
	case <-time.After(timeout):
	}
}
