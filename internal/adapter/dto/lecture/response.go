package lecture

import "time"

// LectureResponse is the public view of a lecture
type LectureResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Filename           string    `json:"filename"`
	Duration           *float64  `json:"duration"`
	Language           string    `json:"language,omitempty"`
	Status             string    `json:"status"`
	ProcessingProgress *float64  `json:"processing_progress"`
	Error              *string   `json:"error"`
	HasTranscript      bool      `json:"has_transcript"`
	HasSummary         bool      `json:"has_summary"`
	Subject            string    `json:"subject,omitempty"`
	GroupName          string    `json:"group_name,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UploadInitResponse returns the id of a new chunked upload session
type UploadInitResponse struct {
	UploadID string `json:"upload_id"`
}

// ChunkResponse acknowledges a stored chunk
type ChunkResponse struct {
	UploadID string `json:"upload_id"`
	Index    int    `json:"index"`
}

// SearchResultResponse is one search hit
type SearchResultResponse struct {
	Lecture LectureResponse `json:"lecture"`
	MatchIn string          `json:"match_in,omitempty"`
	Snippet string          `json:"snippet,omitempty"`
}

// ReindexResponse reports how many chunks were indexed
type ReindexResponse struct {
	LectureID string `json:"lecture_id"`
	Chunks    int    `json:"chunks"`
}

// LanguageResponse is one supported transcription language
type LanguageResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
