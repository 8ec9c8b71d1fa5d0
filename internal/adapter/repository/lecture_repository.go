package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

// lectureRepository implements the LectureRepository interface
type lectureRepository struct {
	db *gorm.DB
}

// NewLectureRepository creates a new lecture repository
func NewLectureRepository(db *gorm.DB) repositories.LectureRepository {
	return &lectureRepository{db: db}
}

// Create stores a new lecture
func (r *lectureRepository) Create(ctx context.Context, lecture *entities.Lecture) error {
	return r.db.WithContext(ctx).Create(lecture).Error
}

// FindByID retrieves a lecture by id
func (r *lectureRepository) FindByID(ctx context.Context, id string) (*entities.Lecture, error) {
	var lecture entities.Lecture
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&lecture).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lecture, nil
}

// List returns the user's lectures, newest first
func (r *lectureRepository) List(ctx context.Context, userID uuid.UUID, filters repositories.LectureFilters) ([]*entities.Lecture, error) {
	var lectures []*entities.Lecture

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.GroupName != "" {
		query = query.Where("group_name = ?", filters.GroupName)
	}

	err := query.Order("created_at DESC").Find(&lectures).Error
	return lectures, err
}

// ListByStatus returns lectures in any of the given statuses, oldest first
func (r *lectureRepository) ListByStatus(ctx context.Context, statuses ...entities.LectureStatus) ([]*entities.Lecture, error) {
	var lectures []*entities.Lecture
	if len(statuses) == 0 {
		return lectures, nil
	}
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&lectures).Error
	return lectures, err
}

// ListSubjects returns the user's distinct non-empty subjects
func (r *lectureRepository) ListSubjects(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return r.distinct(ctx, userID, "subject")
}

// ListGroups returns the user's distinct non-empty group names
func (r *lectureRepository) ListGroups(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return r.distinct(ctx, userID, "group_name")
}

func (r *lectureRepository) distinct(ctx context.Context, userID uuid.UUID, column string) ([]string, error) {
	values := []string{}
	err := r.db.WithContext(ctx).
		Model(&entities.Lecture{}).
		Where("user_id = ? AND "+column+" <> ''", userID).
		Distinct().
		Order(column).
		Pluck(column, &values).Error
	return values, err
}

// UpdateFields applies user edits
func (r *lectureRepository) UpdateFields(ctx context.Context, id string, update repositories.LectureUpdate) error {
	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Subject != nil {
		fields["subject"] = *update.Subject
	}
	if update.GroupName != nil {
		fields["group_name"] = *update.GroupName
	}
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()

	return r.db.WithContext(ctx).
		Model(&entities.Lecture{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SaveState persists the processing state fields of the lecture. It returns
// ErrLectureNotFound when the row is gone.
func (r *lectureRepository) SaveState(ctx context.Context, lecture *entities.Lecture) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Lecture{}).
		Where("id = ?", lecture.ID).
		Updates(map[string]interface{}{
			"status":              lecture.Status,
			"error":               lecture.Error,
			"processing_progress": lecture.ProcessingProgress,
			"language":            lecture.Language,
			"duration":            lecture.Duration,
			"has_transcript":      lecture.HasTranscript,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", entities.ErrLectureNotFound, lecture.ID)
	}
	return nil
}

// UpdateProgress stores progress only while the lecture is processing
func (r *lectureRepository) UpdateProgress(ctx context.Context, id string, progress float64) error {
	return r.db.WithContext(ctx).
		Model(&entities.Lecture{}).
		Where("id = ? AND status = ?", id, entities.LectureStatusProcessing).
		Updates(map[string]interface{}{
			"processing_progress": entities.ClampProgress(progress),
			"updated_at":          time.Now(),
		}).Error
}

// SetHasSummary flips the summary flag
func (r *lectureRepository) SetHasSummary(ctx context.Context, id string, has bool) error {
	return r.db.WithContext(ctx).
		Model(&entities.Lecture{}).
		Where("id = ?", id).
		Update("has_summary", has).Error
}

// Delete removes the lecture; missing rows are not an error
func (r *lectureRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entities.Lecture{}, "id = ?", id).Error
}
