// Package workers contains the background job processors consumed from the
// job queue: raw-response re-parsing and user data purges.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/queue"
	"github.com/abcode/codelens/internal/services/ai"
	"github.com/abcode/codelens/internal/services/analyzer"
	"go.uber.org/zap"
)

// JobProcessor dispatches queue jobs to their handlers
type JobProcessor struct {
	analyzer      *analyzer.Service
	analyses      database.AnalysisRepositoryInterface
	conversations database.ConversationRepositoryInterface
	jobQueue      queue.JobQueue // For re-enqueueing jobs with delays
	logger        *zap.Logger
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	analyzerService *analyzer.Service,
	analyses database.AnalysisRepositoryInterface,
	conversations database.ConversationRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *JobProcessor {
	return &JobProcessor{
		analyzer:      analyzerService,
		analyses:      analyses,
		conversations: conversations,
		jobQueue:      jobQueue,
		logger:        logger,
	}
}

// ProcessReparseJob re-parses the stored raw response of one analysis
func (p *JobProcessor) ProcessReparseJob(ctx context.Context, job *queue.Job) error {
	if job.AnalysisID == nil {
		return fmt.Errorf("analysis_id is required for reparse job")
	}

	record, err := p.analyses.GetByID(ctx, *job.AnalysisID)
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}
	if record.UserID != job.UserID {
		return fmt.Errorf("analysis does not belong to user")
	}

	if err := p.analyzer.Reparse(ctx, *job.AnalysisID); err != nil {
		return fmt.Errorf("failed to reparse analysis: %w", err)
	}

	return nil
}

// ProcessPurgeJob removes all analyses and chat history for a user
func (p *JobProcessor) ProcessPurgeJob(ctx context.Context, job *queue.Job) error {
	analyses, err := p.analyses.DeleteByUserID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}

	turns, err := p.conversations.DeleteByUserID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}

	p.logger.Info("user_data_purged",
		zap.String("user_id", job.UserID.String()),
		zap.Int64("analyses", analyses),
		zap.Int64("conversation_turns", turns),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (p *JobProcessor) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	if !job.ShouldProcess() {
		p.logger.Info("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			p.logger.Error("job_ack_failed", zap.Error(ackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeReparseAnalysis:
		if err := p.ProcessReparseJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypePurgeUser:
		if err := p.ProcessPurgeJob(ctx, job); err != nil {
			// Purges must not loop on a broken user; park them in the DLQ
			if nackErr := msg.Nack(false); nackErr != nil {
				p.logger.Error("job_nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("purge failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack purge job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles job failures with retry logic. Rate-limit and
// quota errors are re-enqueued through the delayed exchange; everything
// else retries immediately until the retry budget runs out.
func (p *JobProcessor) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if ai.IsQuotaError(err) || ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && p.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := *job
			delayedJob.NotBefore = &notBefore
			delayedJob.RetryCount = job.RetryCount + 1

			if ackErr := msg.Ack(); ackErr != nil {
				p.logger.Error("job_ack_failed", zap.Error(ackErr))
			}

			if enqueueErr := p.jobQueue.Enqueue(ctx, &delayedJob); enqueueErr != nil {
				return fmt.Errorf("failed to re-enqueue throttled job: %w", enqueueErr)
			}

			p.logger.Warn("job_delayed",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
				zap.Duration("retry_delay", retryDelay),
				zap.Error(err),
			)
			return nil
		}
	}

	if job.CanRetry() {
		job.IncrementRetry()
		p.logger.Warn("job_retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Error("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	p.logger.Error("job_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		p.logger.Error("job_nack_failed", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
