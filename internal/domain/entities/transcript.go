package entities

import (
	"strings"
)

// Segment is one timestamped span of transcribed speech
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the stored transcription result of a lecture
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
}

// FullText joins all non-empty segment texts with spaces
func (t *Transcript) FullText() string {
	if t == nil {
		return ""
	}
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// TranscriptionResult is what a transcription run produces
type TranscriptionResult struct {
	Segments            []Segment `json:"segments"`
	Language            string    `json:"language"`
	Duration            float64   `json:"duration"`
	LanguageProbability float64   `json:"language_probability"`
}

// Transcript converts the result into the persisted transcript shape
func (r *TranscriptionResult) Transcript() *Transcript {
	segments := r.Segments
	if segments == nil {
		segments = []Segment{}
	}
	return &Transcript{
		Segments: segments,
		Language: r.Language,
		Duration: r.Duration,
	}
}
