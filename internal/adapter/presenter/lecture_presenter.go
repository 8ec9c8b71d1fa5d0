package presenter

import (
	"github.com/johnquangdev/lecture-assistant/internal/adapter/dto/chat"
	"github.com/johnquangdev/lecture-assistant/internal/adapter/dto/lecture"
	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	lectureUsecase "github.com/johnquangdev/lecture-assistant/internal/usecase/lecture"
	"github.com/johnquangdev/lecture-assistant/pkg/ai"
)

// ToLectureResponse converts a Lecture entity to LectureResponse DTO
func ToLectureResponse(l *entities.Lecture) *lecture.LectureResponse {
	if l == nil {
		return nil
	}
	return &lecture.LectureResponse{
		ID:                 l.ID,
		Title:              l.Title,
		Filename:           l.Filename,
		Duration:           l.Duration,
		Language:           l.Language,
		Status:             string(l.Status),
		ProcessingProgress: l.ProcessingProgress,
		Error:              l.Error,
		HasTranscript:      l.HasTranscript,
		HasSummary:         l.HasSummary,
		Subject:            l.Subject,
		GroupName:          l.GroupName,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// ToLectureListResponse converts lectures, never returning nil
func ToLectureListResponse(lectures []*entities.Lecture) []*lecture.LectureResponse {
	out := make([]*lecture.LectureResponse, 0, len(lectures))
	for _, l := range lectures {
		out = append(out, ToLectureResponse(l))
	}
	return out
}

// ToSearchResponse converts search hits
func ToSearchResponse(results []lectureUsecase.SearchResult) []lecture.SearchResultResponse {
	out := make([]lecture.SearchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, lecture.SearchResultResponse{
			Lecture: *ToLectureResponse(r.Lecture),
			MatchIn: r.MatchIn,
			Snippet: r.Snippet,
		})
	}
	return out
}

// ToHistory converts request history into model messages
func ToHistory(history []chat.HistoryMessage) []ai.Message {
	out := make([]ai.Message, 0, len(history))
	for _, h := range history {
		out = append(out, ai.Message{Role: h.Role, Content: h.Content})
	}
	return out
}
