package entities

import (
	"fmt"
	"strings"
)

// Chunk is a retrieval unit made of consecutive transcript segments
type Chunk struct {
	Text           string  `json:"text"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	SegmentIndices []int   `json:"segment_indices"`
}

// IndexedChunk is a chunk persisted in a lecture's vector collection
type IndexedChunk struct {
	ID         string    `json:"id"`
	LectureID  string    `json:"lecture_id"`
	ChunkIndex int       `json:"chunk_index"`
	Chunk      Chunk     `json:"chunk"`
	Embedding  []float32 `json:"-"`
}

// ChunkID builds the deterministic id of the i-th chunk of a lecture
func ChunkID(lectureID string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", lectureID, i)
}

// CollectionName returns the vector collection name scoped to a lecture
func CollectionName(lectureID string) string {
	return "lecture_" + strings.ReplaceAll(lectureID, "-", "_")
}

// ScoredChunk is a search hit with its similarity score in [0,1]
type ScoredChunk struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Score     float64 `json:"score"`
}

// LectureHits groups the hits of a multi-lecture search by lecture
type LectureHits struct {
	LectureID string        `json:"lecture_id"`
	Chunks    []ScoredChunk `json:"chunks"`
}
