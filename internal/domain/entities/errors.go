package entities

import "errors"

// Domain errors
var (
	// Lecture errors
	ErrLectureNotFound      = errors.New("lecture not found")
	ErrLectureNotReady      = errors.New("lecture is not processed yet")
	ErrLectureAlreadyQueued = errors.New("lecture is already being processed")
	ErrUnsupportedAudio     = errors.New("unsupported audio format")
	ErrAudioMissing         = errors.New("audio file not found")

	// Upload errors
	ErrUploadNotFound = errors.New("upload session not found")
	ErrNoUploadChunks = errors.New("no chunks found")

	// Transcript and summary errors
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrSummaryNotFound    = errors.New("summary not found")

	// Index errors
	ErrCollectionNotFound = errors.New("collection not found")
	ErrIndexFailed        = errors.New("indexing failed")

	// Storage errors
	ErrStorageFailed = errors.New("blob storage failed")

	// Generic errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)
