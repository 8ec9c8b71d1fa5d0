package lecture

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

// RecoveryReport summarizes a recovery scan
type RecoveryReport struct {
	Resubmitted int `json:"resubmitted"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
}

// Recovery resumes lectures left unfinished by a previous process
type Recovery struct {
	repo   repositories.LectureRepository
	queue  Submitter
	logger *zap.Logger
}

func NewRecovery(repo repositories.LectureRepository, queue Submitter, logger *zap.Logger) *Recovery {
	return &Recovery{repo: repo, queue: queue, logger: logger}
}

// Run resubmits every pending or processing lecture whose audio still exists
// and fails the rest
func (r *Recovery) Run(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport

	lectures, err := r.repo.ListByStatus(ctx, entities.IncompleteStatuses...)
	if err != nil {
		return report, fmt.Errorf("failed to list incomplete lectures: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("🔁 Recovering incomplete lectures", zap.Int("count", len(lectures)))
	}

	for _, lecture := range lectures {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if missing := missingAudio(lecture.AudioPath); missing != "" {
			lecture.MarkAsFailed(missing)
			if err := r.repo.SaveState(ctx, lecture); err != nil {
				return report, err
			}
			report.Failed++
			if r.logger != nil {
				r.logger.Warn("⚠️ Lecture audio missing, marked failed",
					zap.String("lecture_id", lecture.ID),
					zap.String("audio_path", lecture.AudioPath),
				)
			}
			continue
		}

		if r.inFlight(lecture.ID) {
			report.Skipped++
			continue
		}

		lecture.MarkAsPending()
		if err := r.repo.SaveState(ctx, lecture); err != nil {
			return report, err
		}

		err := r.queue.Submit(ctx, Job{LectureID: lecture.ID, AudioPath: lecture.AudioPath, Language: lecture.Language})
		if errors.Is(err, entities.ErrLectureAlreadyQueued) {
			report.Skipped++
			continue
		}
		if err != nil {
			return report, err
		}
		report.Resubmitted++
	}

	if r.logger != nil {
		r.logger.Info("✅ Recovery finished",
			zap.Int("resubmitted", report.Resubmitted),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}

func (r *Recovery) inFlight(lectureID string) bool {
	checker, ok := r.queue.(interface{ IsInFlight(string) bool })
	return ok && checker.IsInFlight(lectureID)
}

func missingAudio(path string) string {
	if path == "" {
		return "Audio file not found: no audio path recorded"
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("Audio file not found: %s", path)
	}
	return ""
}
