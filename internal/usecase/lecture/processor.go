package lecture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/pkg/jobcontext"
)

const (
	jobTypeTranscribe = "transcribe"

	DefaultTranscribeTimeout = 3 * time.Hour
	defaultIndexRetryElapsed = 2 * time.Minute
	stateWriteTimeout        = 30 * time.Second
)

// ProcessorConfig tunes a processing run
type ProcessorConfig struct {
	TranscribeTimeout    time.Duration
	IndexRetryMaxElapsed time.Duration
}

// Processor runs the transcribe-then-index pipeline for one lecture
type Processor struct {
	repo        repositories.LectureRepository
	blobs       repositories.BlobStore
	progress    repositories.ProgressCache
	transcriber Transcriber
	indexer     Indexer
	prober      DurationProber
	cfg         ProcessorConfig
	logger      *zap.Logger
}

// NewProcessor creates a processor; progress and prober may be nil
func NewProcessor(
	repo repositories.LectureRepository,
	blobs repositories.BlobStore,
	progress repositories.ProgressCache,
	transcriber Transcriber,
	indexer Indexer,
	prober DurationProber,
	cfg ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = DefaultTranscribeTimeout
	}
	if cfg.IndexRetryMaxElapsed <= 0 {
		cfg.IndexRetryMaxElapsed = defaultIndexRetryElapsed
	}
	return &Processor{
		repo:        repo,
		blobs:       blobs,
		progress:    progress,
		transcriber: transcriber,
		indexer:     indexer,
		prober:      prober,
		cfg:         cfg,
		logger:      logger,
	}
}

// Process drives one lecture to completed or failed. Errors never escape:
// they end up in the lecture record. If ctx is cancelled (shutdown) the lecture
// stays in processing for the recovery scan.
func (p *Processor) Process(ctx context.Context, job Job, workerID int) {
	lecture, err := p.repo.FindByID(ctx, job.LectureID)
	if err != nil || lecture == nil {
		if p.logger != nil {
			p.logger.Error("❌ Cannot load lecture for processing",
				zap.String("lecture_id", job.LectureID),
				zap.Error(err),
			)
		}
		return
	}

	lecture.MarkAsProcessing()
	if err := p.repo.SaveState(ctx, lecture); err != nil {
		if p.logger != nil {
			p.logger.Error("❌ Failed to mark lecture as processing",
				zap.String("lecture_id", lecture.ID),
				zap.Error(err),
			)
		}
		return
	}

	if p.logger != nil {
		p.logger.Info("🎙️ Transcription started",
			zap.String("lecture_id", lecture.ID),
			zap.String("audio_path", job.AudioPath),
			zap.Int("worker_id", workerID),
		)
	}

	total := p.probeDuration(ctx, job.AudioPath)

	jobCtx, cancel := jobcontext.JobBegin(ctx, lecture.ID, jobTypeTranscribe, workerID, p.cfg.TranscribeTimeout)
	defer cancel()

	result, err := p.transcribe(jobCtx, job, total)
	if err != nil {
		if ctx.Err() != nil {
			if p.logger != nil {
				p.logger.Warn("⚠️ Transcription interrupted by shutdown",
					zap.String("lecture_id", lecture.ID),
				)
			}
			return
		}
		p.fail(jobCtx, lecture, p.failureMessage(jobCtx, err), err)
		return
	}

	err = p.complete(ctx, lecture, result)
	if errors.Is(err, entities.ErrLectureNotFound) {
		p.discard(lecture.ID)
		return
	}
	if err != nil {
		p.fail(jobCtx, lecture, fmt.Sprintf("Failed to save transcript: %v", err), err)
		return
	}

	p.index(ctx, lecture.ID, result.Segments)
}

type transcription struct {
	result *entities.TranscriptionResult
	err    error
}

// transcribe runs the transcriber on its own goroutine so the job deadline
// holds even when it ignores ctx. A run that outlives the deadline is
// abandoned; its progress callbacks are dropped from then on.
func (p *Processor) transcribe(jobCtx context.Context, job Job, total float64) (*entities.TranscriptionResult, error) {
	var stopped atomic.Bool
	defer stopped.Store(true)

	done := make(chan transcription, 1)
	go func() {
		var out transcription
		out.err = jobcontext.Run(jobCtx, func(c context.Context) error {
			var terr error
			out.result, terr = p.transcriber.Transcribe(c, job.AudioPath, job.Language, total, func(v float64) {
				if !stopped.Load() {
					p.reportProgress(jobCtx, job.LectureID, v)
				}
			})
			return terr
		})
		done <- out
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-jobCtx.Done():
		return nil, jobCtx.Err()
	}
}

func (p *Processor) failureMessage(jobCtx context.Context, err error) string {
	var panicErr *jobcontext.PanicError
	switch {
	case errors.Is(jobCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Transcription timeout: exceeded %s", p.cfg.TranscribeTimeout)
	case errors.As(err, &panicErr):
		if p.logger != nil {
			p.logger.Error("❌ Transcription panicked", zap.String("stack", panicErr.Stack))
		}
		return fmt.Sprintf("Processing crashed: %v", panicErr.Value)
	default:
		return err.Error()
	}
}

func (p *Processor) probeDuration(ctx context.Context, path string) float64 {
	if p.prober == nil {
		return 0
	}
	d, err := p.prober.Duration(ctx, path)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("⚠️ Could not read audio duration, progress disabled",
				zap.String("audio_path", path),
				zap.Error(err),
			)
		}
		return 0
	}
	return d
}

func (p *Processor) reportProgress(ctx context.Context, lectureID string, v float64) {
	v = math.Round(entities.ClampProgress(v)*1000) / 1000

	if err := p.repo.UpdateProgress(ctx, lectureID, v); err != nil && p.logger != nil {
		p.logger.Warn("⚠️ Failed to store progress",
			zap.String("lecture_id", lectureID),
			zap.Error(err),
		)
	}
	if p.progress != nil {
		if err := p.progress.SetProgress(ctx, lectureID, v); err != nil && p.logger != nil {
			p.logger.Warn("⚠️ Failed to cache progress",
				zap.String("lecture_id", lectureID),
				zap.Error(err),
			)
		}
	}
}

// complete stores the transcript and marks the lecture completed. It returns
// ErrLectureNotFound, with no transcript left behind, when the lecture was
// deleted while it was being transcribed.
func (p *Processor) complete(ctx context.Context, lecture *entities.Lecture, result *entities.TranscriptionResult) error {
	if !p.exists(ctx, lecture.ID) {
		return fmt.Errorf("%w: %s", entities.ErrLectureNotFound, lecture.ID)
	}
	if err := p.blobs.SaveTranscript(ctx, lecture.ID, result.Transcript()); err != nil {
		return err
	}

	lecture.MarkAsCompleted(result.Language, result.Duration)
	if err := p.repo.SaveState(ctx, lecture); err != nil {
		if errors.Is(err, entities.ErrLectureNotFound) {
			if derr := p.blobs.DeleteTranscript(ctx, lecture.ID); derr != nil && p.logger != nil {
				p.logger.Warn("⚠️ Failed to remove orphaned transcript", zap.String("lecture_id", lecture.ID), zap.Error(derr))
			}
		}
		return err
	}
	p.clearProgress(lecture.ID)

	if p.logger != nil {
		p.logger.Info("✅ Transcription completed",
			zap.String("lecture_id", lecture.ID),
			zap.Int("segments", len(result.Segments)),
			zap.String("language", lecture.Language),
			zap.Float64("duration", result.Duration),
		)
	}
	return nil
}

func (p *Processor) fail(jobCtx context.Context, lecture *entities.Lecture, msg string, cause error) {
	if p.logger != nil {
		meta := jobcontext.GetJobMetadata(jobCtx)
		p.logger.Error("❌ Lecture processing failed",
			zap.String("lecture_id", lecture.ID),
			zap.String("job_type", meta.JobType),
			zap.Int("worker_id", meta.WorkerID),
			zap.Duration("elapsed", time.Since(meta.StartTime)),
			zap.String("reason", msg),
			zap.Error(cause),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateWriteTimeout)
	defer cancel()

	lecture.MarkAsFailed(msg)
	err := p.repo.SaveState(ctx, lecture)
	if errors.Is(err, entities.ErrLectureNotFound) {
		p.discard(lecture.ID)
		return
	}
	if err != nil && p.logger != nil {
		p.logger.Error("❌ Failed to persist failure",
			zap.String("lecture_id", lecture.ID),
			zap.Error(err),
		)
	}
	p.clearProgress(lecture.ID)
}

func (p *Processor) exists(ctx context.Context, lectureID string) bool {
	lecture, err := p.repo.FindByID(ctx, lectureID)
	return err != nil || lecture != nil
}

// discard drops the results of a run whose lecture was deleted mid-flight
func (p *Processor) discard(lectureID string) {
	if p.logger != nil {
		p.logger.Warn("⚠️ Lecture deleted during processing, results discarded", zap.String("lecture_id", lectureID))
	}
	p.clearProgress(lectureID)
}

func (p *Processor) clearProgress(lectureID string) {
	if p.progress == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stateWriteTimeout)
	defer cancel()
	if err := p.progress.ClearProgress(ctx, lectureID); err != nil && p.logger != nil {
		p.logger.Warn("⚠️ Failed to clear progress", zap.String("lecture_id", lectureID), zap.Error(err))
	}
}

// index builds the vector collection; failures leave the lecture completed
func (p *Processor) index(ctx context.Context, lectureID string, segments []entities.Segment) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = p.cfg.IndexRetryMaxElapsed

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		n, err := p.indexer.IndexLecture(ctx, lectureID, segments)
		if err != nil {
			retryable := jobcontext.IsRetryableError(err)
			if p.logger != nil {
				p.logger.Warn("⚠️ Indexing attempt failed",
					zap.String("lecture_id", lectureID),
					zap.Int("attempt", attempt),
					zap.Bool("retryable", retryable),
					zap.Error(err),
				)
			}
			if !retryable {
				return backoff.Permanent(err)
			}
			return err
		}
		if p.logger != nil {
			p.logger.Info("✅ Lecture indexed for search",
				zap.String("lecture_id", lectureID),
				zap.Int("chunks", n),
			)
		}
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil && p.logger != nil {
		p.logger.Error("❌ Indexing gave up, lecture stays searchable only after reindex",
			zap.String("lecture_id", lectureID),
			zap.Error(err),
		)
	}

	// A delete that raced the indexer must not leave a collection behind
	if err == nil && !p.exists(ctx, lectureID) {
		if _, derr := p.indexer.DeleteLecture(ctx, lectureID); derr != nil && p.logger != nil {
			p.logger.Warn("⚠️ Failed to drop orphaned collection", zap.String("lecture_id", lectureID), zap.Error(derr))
		}
	}
}
