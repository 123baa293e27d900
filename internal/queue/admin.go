package queue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrag/ragcore/internal/apperr"
)

// Admin backs the admin HTTP surface's stats/requeue endpoints,
// querying ask_queue/truth_queue directly rather than through a
// specific Core[T] instance, since both endpoints operate across
// whichever table the caller names.
type Admin struct {
	pool *pgxpool.Pool
}

// NewAdmin builds an Admin over pool.
func NewAdmin(pool *pgxpool.Pool) *Admin {
	return &Admin{pool: pool}
}

// QueueStat is one queue's reported backlog.
type QueueStat struct {
	Pending   int64 `json:"pending"`
	Failed    int64 `json:"failed"`
	Completed int64 `json:"completed"`
}

// Stats reports pending/failed/completed counts for both queue tables.
func (a *Admin) Stats(ctx context.Context) (map[string]QueueStat, error) {
	out := make(map[string]QueueStat, 2)
	for _, table := range []string{"ask_queue", "truth_queue"} {
		stat, err := a.statsFor(ctx, table)
		if err != nil {
			return nil, err
		}
		out[tableKind(table)] = stat
	}
	return out, nil
}

func (a *Admin) statsFor(ctx context.Context, table string) (QueueStat, error) {
	query := fmt.Sprintf(`
		SELECT
			count(*) FILTER (WHERE NOT processed AND error = ''),
			count(*) FILTER (WHERE NOT processed AND error != ''),
			count(*) FILTER (WHERE processed)
		FROM %s`, table)

	var stat QueueStat
	if err := a.pool.QueryRow(ctx, query).Scan(&stat.Pending, &stat.Failed, &stat.Completed); err != nil {
		return QueueStat{}, apperr.New(apperr.KindDatabaseUnavailable, "queue.admin_stats", err)
	}
	return stat, nil
}

// Requeue resets a stuck or failed row back to pending so it is picked
// up again on the next poll.
func (a *Admin) Requeue(ctx context.Context, kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET processed = false, error = '', picked_at = NULL, started_at = NULL,
			attempt_count = 0
		WHERE id = $1`, table)
	tag, err := a.pool.Exec(ctx, query, id)
	if err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "queue.admin_requeue", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindUnknown, "queue.admin_requeue", fmt.Errorf("no %s row with id %s", kind, id))
	}
	return nil
}

func tableFor(kind string) (string, error) {
	switch kind {
	case "ask":
		return "ask_queue", nil
	case "truth":
		return "truth_queue", nil
	default:
		return "", apperr.New(apperr.KindUnknown, "queue.admin_requeue", fmt.Errorf("unknown queue kind %q", kind))
	}
}

func tableKind(table string) string {
	switch table {
	case "ask_queue":
		return "ask"
	case "truth_queue":
		return "truth"
	default:
		return table
	}
}
