package entities

import (
	"time"

	"github.com/google/uuid"
)

// LectureStatus represents the processing status of a lecture
type LectureStatus string

const (
	LectureStatusPending    LectureStatus = "pending"    // Uploaded, waiting for a worker
	LectureStatusProcessing LectureStatus = "processing" // Being transcribed
	LectureStatusCompleted  LectureStatus = "completed"  // Transcript stored
	LectureStatusFailed     LectureStatus = "failed"     // Processing failed, see Error
)

// IsTerminal reports whether no further automatic transition leaves this status
func (s LectureStatus) IsTerminal() bool {
	return s == LectureStatusCompleted || s == LectureStatusFailed
}

// IncompleteStatuses are the statuses picked up by the crash recovery scan
var IncompleteStatuses = []LectureStatus{LectureStatusPending, LectureStatusProcessing}

// Lecture is an uploaded lecture recording and its processing state
type Lecture struct {
	ID                 string        `json:"id" gorm:"type:varchar(64);primary_key"`
	UserID             uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Title              string        `json:"title" gorm:"type:varchar(500);not null"`
	Filename           string        `json:"filename" gorm:"type:varchar(500)"`
	AudioPath          string        `json:"audio_path,omitempty" gorm:"type:text"`
	Duration           *float64      `json:"duration,omitempty"`
	Language           string        `json:"language,omitempty" gorm:"type:varchar(20)"`
	Status             LectureStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`
	ProcessingProgress *float64      `json:"processing_progress,omitempty"`
	Error              *string       `json:"error,omitempty" gorm:"type:text"`
	HasTranscript      bool          `json:"has_transcript" gorm:"default:false"`
	HasSummary         bool          `json:"has_summary" gorm:"default:false"`
	Subject            string        `json:"subject,omitempty" gorm:"type:varchar(255);index"`
	GroupName          string        `json:"group_name,omitempty" gorm:"type:varchar(255);index"`
	CreatedAt          time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Lecture) TableName() string {
	return "lectures"
}

// NewLecture creates a pending lecture owned by userID
func NewLecture(id string, userID uuid.UUID, title, filename, audioPath, language string) *Lecture {
	now := time.Now()
	return &Lecture{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Filename:  filename,
		AudioPath: audioPath,
		Language:  language,
		Status:    LectureStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy checks lecture ownership
func (l *Lecture) IsOwnedBy(userID uuid.UUID) bool {
	return l.UserID == userID
}

// IsReady reports whether the transcript can be read and searched
func (l *Lecture) IsReady() bool {
	return l.Status == LectureStatusCompleted
}

// MarkAsPending resets the lecture so it can be processed from scratch
func (l *Lecture) MarkAsPending() {
	l.Status = LectureStatusPending
	l.Error = nil
	l.ProcessingProgress = nil
	l.UpdatedAt = time.Now()
}

// MarkAsProcessing moves the lecture into processing and clears stale error state
func (l *Lecture) MarkAsProcessing() {
	l.Status = LectureStatusProcessing
	l.Error = nil
	l.ProcessingProgress = nil
	l.UpdatedAt = time.Now()
}

// SetProgress records transcription progress; ignored outside processing
func (l *Lecture) SetProgress(p float64) {
	if l.Status != LectureStatusProcessing {
		return
	}
	p = ClampProgress(p)
	l.ProcessingProgress = &p
	l.UpdatedAt = time.Now()
}

// MarkAsCompleted stores the transcription outcome
func (l *Lecture) MarkAsCompleted(language string, duration float64) {
	l.Status = LectureStatusCompleted
	l.HasTranscript = true
	l.ProcessingProgress = nil
	l.Error = nil
	if language != "" {
		l.Language = language
	}
	l.Duration = &duration
	l.UpdatedAt = time.Now()
}

// MarkAsFailed marks the lecture as failed with a user readable message
func (l *Lecture) MarkAsFailed(errMsg string) {
	l.Status = LectureStatusFailed
	l.Error = &errMsg
	l.ProcessingProgress = nil
	l.UpdatedAt = time.Now()
}

// ClampProgress limits a progress value to [0,1]
func ClampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
