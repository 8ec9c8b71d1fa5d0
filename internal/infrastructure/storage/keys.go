package storage

import "fmt"

const (
	transcriptPrefix = "transcripts"
	summaryPrefix    = "summaries"
)

func transcriptKey(lectureID string) string {
	return fmt.Sprintf("%s/%s.json", transcriptPrefix, lectureID)
}

func summaryKey(lectureID string) string {
	return fmt.Sprintf("%s/%s.json", summaryPrefix, lectureID)
}

