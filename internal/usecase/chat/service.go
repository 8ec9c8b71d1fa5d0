package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/pkg/ai"
)

const (
	historyLimit    = 6
	globalMaxChunks = 10

	noContextAnswer       = "I could not find relevant information in this lecture to answer your question."
	noGlobalContextAnswer = "I could not find relevant information in your lectures to answer your question."
)

const systemPrompt = `You are a study assistant that answers questions ONLY from the lecture context below.

Rules:
1. Use only information from the context.
2. If the answer is not in the context, say: "This was not mentioned in the lecture".
3. Cite timestamps as [MM:SS] when referring to specific moments.
4. Answer in the language the question is asked in.
5. Be concise but informative.

Lecture context:
%s`

var (
	notFoundMarkers = []string{"not mentioned in the lecture", "no information", "не говорилось", "нет информации"}
	hedgeMarkers    = []string{"in the lecture", "в лекции"}
)

// Searcher finds transcript chunks relevant to a question
type Searcher interface {
	Search(ctx context.Context, lectureID, query string, topK int, minScore float64) ([]entities.ScoredChunk, error)
	SearchAllLectures(ctx context.Context, lectureIDs []string, query string, topKPerLecture int, minScore float64) ([]entities.LectureHits, error)
}

// Generator produces a completion from a conversation
type Generator interface {
	Generate(ctx context.Context, messages []ai.Message) (string, string, error)
}

// Config holds retrieval parameters
type Config struct {
	TopK           int
	MinScore       float64
	GlobalTopK     int
	GlobalMinScore float64
}

// Source is a chunk that grounded an answer
type Source struct {
	LectureID      string  `json:"lecture_id,omitempty"`
	LectureTitle   string  `json:"lecture_title,omitempty"`
	Text           string  `json:"text"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is a grounded reply; Confidence is nil when the context had no answer
type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence *float64 `json:"confidence"`
	Provider   string   `json:"provider,omitempty"`
}

// Service answers questions over one lecture or all of a user's lectures
type Service struct {
	repo      repositories.LectureRepository
	searcher  Searcher
	generator Generator
	cfg       Config
	logger    *zap.Logger
}

func NewService(repo repositories.LectureRepository, searcher Searcher, generator Generator, cfg Config, logger *zap.Logger) *Service {
	return &Service{repo: repo, searcher: searcher, generator: generator, cfg: cfg, logger: logger}
}

// Ask answers a question about one completed lecture owned by userID
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, lectureID, question string, history []ai.Message) (*Answer, error) {
	lecture, err := s.repo.FindByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if lecture == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrLectureNotFound, lectureID)
	}
	if !lecture.IsOwnedBy(userID) {
		return nil, entities.ErrForbidden
	}
	if !lecture.IsReady() {
		return nil, fmt.Errorf("%w: status %s", entities.ErrLectureNotReady, lecture.Status)
	}

	chunks, err := s.searcher.Search(ctx, lectureID, question, s.cfg.TopK, s.cfg.MinScore)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(chunks) == 0 {
		return &Answer{Answer: noContextAnswer, Sources: []Source{}}, nil
	}

	sources := make([]Source, len(chunks))
	for i, ch := range chunks {
		sources[i] = Source{
			Text:           ch.Text,
			StartTime:      ch.StartTime,
			EndTime:        ch.EndTime,
			RelevanceScore: ch.Score,
		}
	}
	return s.answer(ctx, question, BuildContext(chunks), history, sources)
}

// AskGlobal answers from the user's completed lectures matching filters
func (s *Service) AskGlobal(ctx context.Context, userID uuid.UUID, question string, history []ai.Message, filters repositories.LectureFilters) (*Answer, error) {
	lectures, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string)
	ids := make([]string, 0, len(lectures))
	for _, l := range lectures {
		if l.IsReady() {
			ids = append(ids, l.ID)
			titles[l.ID] = l.Title
		}
	}

	hits, err := s.searcher.SearchAllLectures(ctx, ids, question, s.cfg.GlobalTopK, s.cfg.GlobalMinScore)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var sources []Source
	for _, h := range hits {
		for _, ch := range h.Chunks {
			sources = append(sources, Source{
				LectureID:      h.LectureID,
				LectureTitle:   titles[h.LectureID],
				Text:           ch.Text,
				StartTime:      ch.StartTime,
				EndTime:        ch.EndTime,
				RelevanceScore: ch.Score,
			})
		}
	}
	if len(sources) == 0 {
		return &Answer{Answer: noGlobalContextAnswer, Sources: []Source{}}, nil
	}
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].RelevanceScore > sources[j].RelevanceScore })
	if len(sources) > globalMaxChunks {
		sources = sources[:globalMaxChunks]
	}

	return s.answer(ctx, question, BuildGlobalContext(sources), history, sources)
}

func (s *Service) answer(ctx context.Context, question, lectureContext string, history []ai.Message, sources []Source) (*Answer, error) {
	messages := BuildMessages(lectureContext, question, history)
	text, provider, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("💬 Answer generated",
			zap.String("provider", provider),
			zap.Int("sources", len(sources)),
		)
	}
	return &Answer{
		Answer:     text,
		Sources:    sources,
		Confidence: Confidence(text),
		Provider:   provider,
	}, nil
}

// BuildContext renders chunks as "[start s - end s]: text" blocks separated by blank lines
func BuildContext(chunks []entities.ScoredChunk) string {
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = fmt.Sprintf("[%.1fs - %.1fs]: %s", ch.StartTime, ch.EndTime, ch.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildGlobalContext is BuildContext with each block labelled by its lecture title
func BuildGlobalContext(sources []Source) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("Lecture %q [%.1fs - %.1fs]: %s", src.LectureTitle, src.StartTime, src.EndTime, src.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildMessages assembles the system prompt, the last few history turns and the question
func BuildMessages(lectureContext, question string, history []ai.Message) []ai.Message {
	messages := []ai.Message{{Role: ai.RoleSystem, Content: fmt.Sprintf(systemPrompt, lectureContext)}}

	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, m := range history {
		if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
			continue
		}
		messages = append(messages, m)
	}
	return append(messages, ai.Message{Role: ai.RoleUser, Content: question})
}

// Confidence is a rough heuristic over the answer text
func Confidence(answer string) *float64 {
	lower := strings.ToLower(answer)
	for _, m := range notFoundMarkers {
		if strings.Contains(lower, m) {
			return nil
		}
	}
	c := 0.8
	for _, m := range hedgeMarkers {
		if strings.Contains(lower, m) {
			c = 0.5
			break
		}
	}
	return &c
}
