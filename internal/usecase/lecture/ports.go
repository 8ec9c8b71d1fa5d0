package lecture

import (
	"context"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// Transcriber turns an audio file into timestamped segments
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string, totalDuration float64, onProgress func(float64)) (*entities.TranscriptionResult, error)
}

// Indexer maintains the per-lecture vector collections
type Indexer interface {
	IndexLecture(ctx context.Context, lectureID string, segments []entities.Segment) (int, error)
	DeleteLecture(ctx context.Context, lectureID string) (bool, error)
	SearchAllLectures(ctx context.Context, lectureIDs []string, query string, topKPerLecture int, minScore float64) ([]entities.LectureHits, error)
}

// DurationProber reads the length of an audio file in seconds
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Submitter accepts lectures for background processing
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

// Job is one lecture waiting to be transcribed
type Job struct {
	LectureID string
	AudioPath string
	Language  string
}
