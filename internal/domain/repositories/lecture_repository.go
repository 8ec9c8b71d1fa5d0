package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// LectureFilters narrows List results
type LectureFilters struct {
	Subject   string
	GroupName string
}

// LectureUpdate holds the user editable lecture fields; nil means unchanged
type LectureUpdate struct {
	Title     *string
	Subject   *string
	GroupName *string
}

// LectureRepository defines persistence operations for lectures.
// Find methods return (nil, nil) when the lecture does not exist.
type LectureRepository interface {
	// Create stores a new lecture
	Create(ctx context.Context, lecture *entities.Lecture) error

	// FindByID retrieves a lecture by id
	FindByID(ctx context.Context, id string) (*entities.Lecture, error)

	// List returns the user's lectures, newest first
	List(ctx context.Context, userID uuid.UUID, filters LectureFilters) ([]*entities.Lecture, error)

	// ListByStatus returns lectures in any of the given statuses, oldest first
	ListByStatus(ctx context.Context, statuses ...entities.LectureStatus) ([]*entities.Lecture, error)

	// ListSubjects returns the user's distinct non-empty subjects
	ListSubjects(ctx context.Context, userID uuid.UUID) ([]string, error)

	// ListGroups returns the user's distinct non-empty group names
	ListGroups(ctx context.Context, userID uuid.UUID) ([]string, error)

	// UpdateFields applies user edits
	UpdateFields(ctx context.Context, id string, update LectureUpdate) error

	// SaveState persists the processing state fields of the lecture
	SaveState(ctx context.Context, lecture *entities.Lecture) error

	// UpdateProgress stores transcription progress for a processing lecture
	UpdateProgress(ctx context.Context, id string, progress float64) error

	// SetHasSummary flips the summary flag
	SetHasSummary(ctx context.Context, id string, has bool) error

	// Delete removes the lecture; deleting a missing lecture is not an error
	Delete(ctx context.Context, id string) error
}

// BlobStore persists transcript and summary documents by lecture id.
// Load methods return entities.ErrTranscriptNotFound or entities.ErrSummaryNotFound
// for missing documents; deletes ignore missing documents.
type BlobStore interface {
	SaveTranscript(ctx context.Context, lectureID string, t *entities.Transcript) error
	LoadTranscript(ctx context.Context, lectureID string) (*entities.Transcript, error)
	DeleteTranscript(ctx context.Context, lectureID string) error

	SaveSummary(ctx context.Context, lectureID string, s *entities.Summary) error
	LoadSummary(ctx context.Context, lectureID string) (*entities.Summary, error)
	DeleteSummary(ctx context.Context, lectureID string) error
}

// ProgressCache holds short lived transcription progress for fast polling
type ProgressCache interface {
	SetProgress(ctx context.Context, lectureID string, progress float64) error
	GetProgress(ctx context.Context, lectureID string) (float64, bool, error)
	ClearProgress(ctx context.Context, lectureID string) error
}
