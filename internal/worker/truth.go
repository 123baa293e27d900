package worker

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatrag/ragcore/internal/answer"
	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/queue"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// DefaultTruthMessageCount is used when a job's requested count is
// zero or negative.
const DefaultTruthMessageCount = 200

// TruthWorker answers /truth requests by summarizing the chat's most
// recent messages directly, with no retrieval step.
type TruthWorker struct {
	Queue     *queue.TruthQueue
	DB        *gorm.DB
	Generator *answer.Generator
	Transport interfaces.ChatTransport
	Clock     interfaces.Clock
}

// Run drives the truth worker loop until ctx is canceled.
func (w *TruthWorker) Run(ctx context.Context) {
	lastRecover := time.Time{}
	lastCleanup := time.Time{}

	for {
		if ctx.Err() != nil {
			return
		}

		now := w.Clock.Now()
		if now.Sub(lastRecover) >= RecoverStaleInterval {
			if recovered, closed, err := w.Queue.RecoverStale(ctx); err != nil {
				logger.Error(ctx, "truth worker recover_stale failed", "error", err.Error())
			} else if recovered > 0 || closed > 0 {
				logger.Info(ctx, "truth worker recovered stale leases", "recovered", recovered, "closed", closed)
			}
			lastRecover = now
		}
		if now.Sub(lastCleanup) >= CleanupInterval {
			if n, err := w.Queue.CleanupOld(ctx, int(CleanupAge.Hours()/24)); err != nil {
				logger.Error(ctx, "truth worker cleanup_old failed", "error", err.Error())
			} else if n > 0 {
				logger.Info(ctx, "truth worker cleaned up old jobs", "count", n)
			}
			lastCleanup = now
		}

		job, ok, err := w.Queue.Pick(ctx)
		if err != nil {
			logger.Error(ctx, "truth worker pick failed", "error", err.Error())
			w.Queue.WaitForNotification(ctx, NotificationWait)
			continue
		}
		if !ok {
			w.Queue.WaitForNotification(ctx, NotificationWait)
			continue
		}

		if err := w.ProcessTruth(ctx, job); err != nil {
			w.handleFailure(ctx, job, err)
		}
	}
}

func (w *TruthWorker) handleFailure(ctx context.Context, job *types.TruthJob, cause error) {
	willRetry, err := w.Queue.Fail(ctx, job.ID, job.AttemptCount, cause.Error())
	if err != nil {
		logger.Error(ctx, "truth worker fail() failed", "job_id", job.ID, "error", err.Error())
		return
	}
	logger.Warn(ctx, "truth job failed", "job_id", job.ID, "will_retry", willRetry, "cause", cause.Error())
	if !willRetry {
		_ = w.Transport.SendMessage(ctx, job.ChatID, "Sorry, something went wrong while summarizing.", nil, interfaces.ParseModePlain)
	}
}

// ProcessTruth fetches the chat's last MessageCount messages and asks
// the answer generator to summarize them directly, with no retrieval
// or confidence gate.
func (w *TruthWorker) ProcessTruth(ctx context.Context, job *types.TruthJob) error {
	count := job.MessageCount
	if count <= 0 {
		count = DefaultTruthMessageCount
	}

	var rows []types.Message
	if err := w.DB.WithContext(ctx).
		Where("chat_id = ? AND text != ''", job.ChatID).
		Order("id DESC").
		Limit(count).
		Find(&rows).Error; err != nil {
		return apperr.New(apperr.KindDatabaseUnavailable, "truth.fetch_messages", err)
	}

	thread := types.ContextThread{Messages: make([]types.ContextMessage, 0, len(rows))}
	for i := len(rows) - 1; i >= 0; i-- {
		m := rows[i]
		thread.Messages = append(thread.Messages, types.ContextMessage{
			MessageID:     m.ID,
			Author:        m.AuthorLabel(),
			Text:          m.Text,
			Date:          m.DateUTC,
			IsForwarded:   m.IsForwarded,
			ForwardOrigin: m.ForwardOriginType,
		})
	}

	var threads []types.ContextThread
	if len(thread.Messages) > 0 {
		threads = []types.ContextThread{thread}
	}

	summary, err := w.Generator.Generate(ctx, string(types.JobKindTruth), "Summarize what has happened in this chat recently.", threads, "")
	if err != nil {
		return err
	}

	sanitized := SanitizeHTML(summary)
	if err := w.Transport.SendMessage(ctx, job.ChatID, sanitized, nil, interfaces.ParseModeHTML); err != nil {
		if apperr.KindOf(err) != apperr.KindTransportRejected {
			return err
		}
		if err := w.Transport.SendMessage(ctx, job.ChatID, StripTags(sanitized), nil, interfaces.ParseModePlain); err != nil {
			return apperr.New(apperr.KindTransportRejected, "truth.send_plain_fallback", err)
		}
	}

	logger.Info(ctx, "truth job completed", "job_id", job.ID, "chat_id", job.ChatID, "message_count", len(thread.Messages))
	return w.Queue.Complete(ctx, job.ID)
}
