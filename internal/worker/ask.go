package worker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chatrag/ragcore/internal/answer"
	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/contextwindow"
	"github.com/chatrag/ragcore/internal/fusion"
	"github.com/chatrag/ragcore/internal/intent"
	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/normalize"
	"github.com/chatrag/ragcore/internal/queue"
	"github.com/chatrag/ragcore/internal/types"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// RecoverStaleInterval bounds how often the loop sweeps expired leases,
// per spec.md §4.11 ("recover_stale opportunistically, ≥ once per minute").
const RecoverStaleInterval = time.Minute

// NotificationWait is the worker's idle-poll timeout.
const NotificationWait = 30 * time.Second

// CleanupInterval bounds how often processed rows are pruned.
const CleanupInterval = time.Hour

// CleanupAge is how long a completed row is kept before CleanupOld
// removes it.
const CleanupAge = 30 * 24 * time.Hour

// MaxContextHits is the cap on hit message ids passed to context window
// expansion, per spec.md §4.8.
const MaxContextHits = 10

// AskWorker drives the /ask and /smart job pipeline, per spec.md §4.11.
type AskWorker struct {
	Queue        *queue.AskQueue
	Classifier   *intent.Classifier
	Nicknames    *intent.NicknameResolver
	Pools        *fusion.PersonalPoolBuilder
	Orchestrator *fusion.Orchestrator
	Expander     *contextwindow.Expander
	Generator    *answer.Generator
	Transport    interfaces.ChatTransport
	Memory       interfaces.MemoryService // nil disables memory context/recording
	Clock        interfaces.Clock
}

// Run drives the worker loop until ctx is canceled.
func (w *AskWorker) Run(ctx context.Context) {
	lastRecover := time.Time{}
	lastCleanup := time.Time{}

	for {
		if ctx.Err() != nil {
			return
		}

		now := w.Clock.Now()
		if now.Sub(lastRecover) >= RecoverStaleInterval {
			if recovered, closed, err := w.Queue.RecoverStale(ctx); err != nil {
				logger.Error(ctx, "ask worker recover_stale failed", "error", err.Error())
			} else if recovered > 0 || closed > 0 {
				logger.Info(ctx, "ask worker recovered stale leases", "recovered", recovered, "closed", closed)
			}
			lastRecover = now
		}
		if now.Sub(lastCleanup) >= CleanupInterval {
			if n, err := w.Queue.CleanupOld(ctx, int(CleanupAge.Hours()/24)); err != nil {
				logger.Error(ctx, "ask worker cleanup_old failed", "error", err.Error())
			} else if n > 0 {
				logger.Info(ctx, "ask worker cleaned up old jobs", "count", n)
			}
			lastCleanup = now
		}

		job, ok, err := w.Queue.Pick(ctx)
		if err != nil {
			logger.Error(ctx, "ask worker pick failed", "error", err.Error())
			w.Queue.WaitForNotification(ctx, NotificationWait)
			continue
		}
		if !ok {
			w.Queue.WaitForNotification(ctx, NotificationWait)
			continue
		}

		if err := w.ProcessAsk(ctx, job); err != nil {
			w.handleFailure(ctx, job, err)
			continue
		}
	}
}

func (w *AskWorker) handleFailure(ctx context.Context, job *types.AskJob, cause error) {
	willRetry, err := w.Queue.Fail(ctx, job.ID, job.AttemptCount, cause.Error())
	if err != nil {
		logger.Error(ctx, "ask worker fail() failed", "job_id", job.ID, "error", err.Error())
		return
	}
	logger.Warn(ctx, "ask job failed", "job_id", job.ID, "will_retry", willRetry, "cause", cause.Error())
	if !willRetry {
		reply := job.ReplyToMessageID
		_ = w.Transport.SendMessage(ctx, job.ChatID, "Sorry, something went wrong and I couldn't answer.", &reply, interfaces.ParseModePlain)
	}
}

// ProcessAsk runs one job through steps a-i of spec.md §4.11.3.
func (w *AskWorker) ProcessAsk(ctx context.Context, job *types.AskJob) error {
	// a. normalize
	question := normalize.Normalize(job.Question)
	if question == "" {
		reply := job.ReplyToMessageID
		if err := w.Transport.SendMessage(ctx, job.ChatID, "I couldn't understand that question.", &reply, interfaces.ParseModePlain); err != nil {
			return apperr.New(apperr.KindTransportRejected, "ask.empty_question_reply", err)
		}
		return w.Queue.Complete(ctx, job.ID)
	}

	// b. classify concurrently with a speculative default search (kind=ask only)
	var classified *types.ClassifiedQuery
	var speculative *types.SearchResponse
	runSpeculative := job.Kind == types.JobKindAsk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		classified = w.Classifier.Classify(gctx, question)
		return nil
	})
	if runSpeculative {
		g.Go(func() error {
			resp, err := w.Orchestrator.Answer(gctx, job.ChatID, question)
			if err != nil {
				logger.Warn(gctx, "speculative search failed", "chat_id", job.ChatID, "error", err.Error())
				return nil
			}
			speculative = resp
			return nil
		})
	}
	_ = g.Wait()

	// c. resolve nicknames, substitute canonical names, report high-confidence ones
	searchQuestion, reportedNames := w.resolveNicknames(ctx, job.ChatID, question, classified)
	if searchQuestion != question {
		speculative = nil // the speculative search ran against the un-substituted question
	}

	// d. build memory context in parallel with search
	var memoryContext string
	var searchResp *types.SearchResponse
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.Go(func() error {
		var err error
		searchResp, err = w.search(gctx2, job.ChatID, job.AskerID, searchQuestion, classified, speculative)
		return err
	})
	if w.Memory != nil && job.AskerID != 0 {
		g2.Go(func() error {
			ctxMem, err := w.Memory.BuildContext(gctx2, job.ChatID, job.AskerID)
			if err != nil {
				logger.Warn(gctx2, "memory context build failed", "chat_id", job.ChatID, "error", err.Error())
				return nil
			}
			memoryContext = ctxMem
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return err
	}

	// e. confidence gate
	action := GateAction(searchResp.Confidence, job.Kind)
	var threads []types.ContextThread
	switch action {
	case ActionNotFound:
		reply := job.ReplyToMessageID
		if err := w.Transport.SendMessage(ctx, job.ChatID, "I couldn't find anything relevant to answer that.", &reply, interfaces.ParseModePlain); err != nil {
			return apperr.New(apperr.KindTransportRejected, "ask.not_found_reply", err)
		}
		return w.Queue.Complete(ctx, job.ID)
	case ActionGeneralFallback:
		threads = nil
	default:
		// f. expand top hits into context windows
		var err error
		threads, err = w.expandContext(ctx, job.ChatID, searchResp)
		if err != nil {
			return err
		}
	}

	// g. generate the answer
	reportedSection := formatNicknameReport(reportedNames)
	finalAnswer, err := w.Generator.Generate(ctx, string(job.Kind), question, threads, memoryContext+reportedSection)
	if err != nil {
		return err
	}

	// h. sanitize and send, with HTML-fallback on rejection
	sanitized := SanitizeHTML(finalAnswer)
	reply := job.ReplyToMessageID
	sendErr := w.Transport.SendMessage(ctx, job.ChatID, sanitized, &reply, interfaces.ParseModeHTML)
	if sendErr != nil && apperr.KindOf(sendErr) == apperr.KindTransportRejected {
		plain := StripTags(sanitized)
		if sendErr = w.Transport.SendMessage(ctx, job.ChatID, plain, &reply, interfaces.ParseModePlain); sendErr != nil {
			return apperr.New(apperr.KindTransportRejected, "ask.send_plain_fallback", sendErr)
		}
	} else if sendErr != nil {
		return sendErr
	}

	// i. complete, fire-and-forget memory update, debug report
	if err := w.Queue.Complete(ctx, job.ID); err != nil {
		return err
	}
	if w.Memory != nil && job.AskerID != 0 {
		go func() {
			bg := logger.CloneContext(ctx)
			if err := w.Memory.RecordOutcome(bg, job.ChatID, job.AskerID, question, finalAnswer); err != nil {
				logger.Warn(bg, "memory record_outcome failed", "chat_id", job.ChatID, "error", err.Error())
			}
		}()
	}
	logger.Info(ctx, "ask job completed", "job_id", job.ID, "chat_id", job.ChatID, "confidence", string(searchResp.Confidence))
	return nil
}

func (w *AskWorker) resolveNicknames(ctx context.Context, chatID int64, question string, classified *types.ClassifiedQuery) (string, []resolved) {
	if classified == nil || len(classified.MentionedPeople) == 0 {
		return question, nil
	}

	results := make([]resolved, 0, len(classified.MentionedPeople))
	for _, nickname := range classified.MentionedPeople {
		res, err := w.Nicknames.Resolve(ctx, chatID, nickname)
		if err != nil || res == nil {
			continue
		}
		results = append(results, resolved{nickname: nickname, resolvedName: res.ResolvedName, confidence: res.Confidence})
	}
	return SubstituteNicknames(question, results)
}

func formatNicknameReport(reported []resolved) string {
	if len(reported) == 0 {
		return ""
	}
	report := "\n\nResolved names: "
	for i, r := range reported {
		if i > 0 {
			report += ", "
		}
		report += r.nickname + " -> " + r.resolvedName
	}
	return report
}

// search runs the specialized or default retrieval strategy chosen by
// the classified intent, per spec.md §4.5's selection rule, reusing the
// speculative search only when it wasn't discarded.
func (w *AskWorker) search(ctx context.Context, chatID, askerID int64, question string, classified *types.ClassifiedQuery, speculative *types.SearchResponse) (*types.SearchResponse, error) {
	if classified == nil || !classified.RequiresSpecializedSearch() {
		if speculative != nil {
			return speculative, nil
		}
		return w.Orchestrator.Answer(ctx, chatID, question)
	}

	switch {
	case classified.Intent == types.IntentPersonalSelf && askerID != 0:
		pool, err := w.Pools.BuildForUser(ctx, chatID, askerID, 7, classified.MentionedPeople)
		if err != nil {
			return nil, err
		}
		return w.Orchestrator.AnswerInPool(ctx, chatID, question, pool)
	case classified.Intent == types.IntentPersonalOther && len(classified.MentionedPeople) > 0:
		pool, err := w.Pools.BuildForNames(ctx, chatID, classified.MentionedPeople)
		if err != nil {
			return nil, err
		}
		return w.Orchestrator.AnswerInPool(ctx, chatID, question, pool)
	default:
		// Temporal/Comparison/MultiEntity have no distinct retrieval
		// strategy defined beyond the Personal Search Pool; they fall
		// back to RAG Fusion (see DESIGN.md Open Question decisions).
		return w.Orchestrator.Answer(ctx, chatID, question)
	}
}

func (w *AskWorker) expandContext(ctx context.Context, chatID int64, resp *types.SearchResponse) ([]types.ContextThread, error) {
	var hitIDs []int64
	for _, r := range resp.Results {
		if r.IsContextWindow {
			continue
		}
		hitIDs = append(hitIDs, r.MessageID)
		if len(hitIDs) >= MaxContextHits {
			break
		}
	}
	if len(hitIDs) == 0 {
		return nil, nil
	}
	return w.Expander.Expand(ctx, chatID, hitIDs)
}
