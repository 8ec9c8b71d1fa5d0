package lecture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// JobProcessor handles one dequeued job
type JobProcessor interface {
	Process(ctx context.Context, job Job, workerID int)
}

// Queue is a bounded worker pool for lecture processing
type Queue struct {
	processor   JobProcessor
	jobs        chan Job
	workerCount int
	logger      *zap.Logger

	// lecture id -> struct{} for queued and running jobs
	inFlight sync.Map

	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	workerMutex         sync.Mutex
	isWorkerPoolRunning bool
}

// NewQueue creates a queue holding up to size waiting jobs
func NewQueue(processor JobProcessor, workerCount, size int, logger *zap.Logger) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	if size <= 0 {
		size = 100
	}
	return &Queue{
		processor:   processor,
		jobs:        make(chan Job, size),
		workerCount: workerCount,
		logger:      logger,
	}
}

// Submit enqueues a job, blocking only while the queue is full.
// A lecture that is already queued or running is rejected.
func (q *Queue) Submit(ctx context.Context, job Job) error {
	if _, loaded := q.inFlight.LoadOrStore(job.LectureID, struct{}{}); loaded {
		return fmt.Errorf("%w: %s", entities.ErrLectureAlreadyQueued, job.LectureID)
	}

	select {
	case q.jobs <- job:
		if q.logger != nil {
			q.logger.Info("📥 Lecture queued for processing",
				zap.String("lecture_id", job.LectureID),
				zap.Int("queue_length", len(q.jobs)),
			)
		}
		return nil
	case <-ctx.Done():
		q.inFlight.Delete(job.LectureID)
		return ctx.Err()
	}
}

// IsInFlight reports whether the lecture is queued or being processed
func (q *Queue) IsInFlight(lectureID string) bool {
	_, ok := q.inFlight.Load(lectureID)
	return ok
}

// Idle reports whether no job is queued or running
func (q *Queue) Idle() bool {
	idle := true
	q.inFlight.Range(func(_, _ interface{}) bool {
		idle = false
		return false
	})
	return idle
}

// Wait polls until the queue is idle or ctx is done
func (q *Queue) Wait(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for !q.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Start launches the workers; they stop on Stop or when ctx is cancelled
func (q *Queue) Start(ctx context.Context) error {
	q.workerMutex.Lock()
	defer q.workerMutex.Unlock()

	if q.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}

	q.isWorkerPoolRunning = true
	q.workerStopChan = make(chan struct{})

	if q.logger != nil {
		q.logger.Info("🚀 Starting lecture worker pool",
			zap.Int("worker_count", q.workerCount),
		)
	}

	for i := 0; i < q.workerCount; i++ {
		q.workerWg.Add(1)
		go q.worker(ctx, i)
	}
	return nil
}

// Stop waits for running jobs to finish; queued jobs stay pending for recovery
func (q *Queue) Stop() error {
	q.workerMutex.Lock()
	defer q.workerMutex.Unlock()

	if !q.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if q.logger != nil {
		q.logger.Info("🛑 Stopping lecture worker pool...")
	}

	close(q.workerStopChan)
	q.workerWg.Wait()
	q.isWorkerPoolRunning = false

	if q.logger != nil {
		q.logger.Info("✅ Lecture worker pool stopped")
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, workerID int) {
	defer q.workerWg.Done()

	if q.logger != nil {
		q.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-q.workerStopChan:
			if q.logger != nil {
				q.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			}
			return
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.run(ctx, job, workerID)
		}
	}
}

func (q *Queue) run(ctx context.Context, job Job, workerID int) {
	defer q.inFlight.Delete(job.LectureID)
	defer func() {
		if r := recover(); r != nil && q.logger != nil {
			q.logger.Error("❌ Worker recovered from panic",
				zap.Int("worker_id", workerID),
				zap.String("lecture_id", job.LectureID),
				zap.Any("panic", r),
			)
		}
	}()
	q.processor.Process(ctx, job, workerID)
}
