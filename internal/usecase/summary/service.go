package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/chunking"
	"github.com/johnquangdev/lecture-assistant/pkg/ai"
)

// DefaultMaxChars is the longest transcript sent to the model in one request
const DefaultMaxChars = 12000

const summaryPrompt = `You are an assistant that summarizes university lectures.
Analyze the lecture transcript and return ONLY a JSON object with these keys:
{
  "main_topics": ["topic"],
  "key_definitions": [{"term": "term", "definition": "definition"}],
  "important_facts": ["fact"],
  "assignments": ["homework or task mentioned by the lecturer"],
  "brief_summary": "3-5 sentence summary"
}
Write every value in the language of the transcript. Use empty lists when nothing applies.`

const briefPrompt = `Combine the following partial lecture summaries into one coherent summary of 3-5 sentences.
Reply with the summary text only, in the language of the summaries.`

// Generator produces a completion from a conversation
type Generator interface {
	Generate(ctx context.Context, messages []ai.Message) (string, string, error)
}

// Service builds and caches structured lecture summaries
type Service struct {
	repo      repositories.LectureRepository
	blobs     repositories.BlobStore
	generator Generator
	maxChars  int
	logger    *zap.Logger
}

func NewService(repo repositories.LectureRepository, blobs repositories.BlobStore, generator Generator, maxChars int, logger *zap.Logger) *Service {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Service{repo: repo, blobs: blobs, generator: generator, maxChars: maxChars, logger: logger}
}

// Get returns the cached summary of a completed lecture, generating it on
// first access or when regenerate is set
func (s *Service) Get(ctx context.Context, userID uuid.UUID, lectureID string, regenerate bool) (*entities.Summary, error) {
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

	if !regenerate {
		cached, err := s.blobs.LoadSummary(ctx, lectureID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, entities.ErrSummaryNotFound) {
			return nil, err
		}
	}

	transcript, err := s.blobs.LoadTranscript(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	summary, err := s.Generate(ctx, transcript.FullText())
	if err != nil {
		return nil, err
	}
	summary.Language = lecture.Language
	if summary.Language == "" {
		summary.Language = transcript.Language
	}

	if err := s.blobs.SaveSummary(ctx, lectureID, summary); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	if err := s.repo.SetHasSummary(ctx, lectureID, true); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to flag lecture summary", zap.String("lecture_id", lectureID), zap.Error(err))
	}

	if s.logger != nil {
		s.logger.Info("📝 Summary generated",
			zap.String("lecture_id", lectureID),
			zap.Int("topics", len(summary.MainTopics)),
		)
	}
	return summary, nil
}

// Generate summarizes text, splitting it into pieces when it exceeds the size limit
func (s *Service) Generate(ctx context.Context, text string) (*entities.Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		empty := &entities.Summary{}
		empty.Normalize()
		return empty, nil
	}

	pieces := chunking.ChunkTextBySize(text, s.maxChars, true)
	if len(pieces) == 1 {
		return s.summarize(ctx, pieces[0])
	}

	parts := make([]*entities.Summary, 0, len(pieces))
	for i, piece := range pieces {
		part, err := s.summarize(ctx, piece)
		if err != nil {
			return nil, fmt.Errorf("part %d/%d: %w", i+1, len(pieces), err)
		}
		parts = append(parts, part)
	}

	merged := Merge(parts)
	brief, _, err := s.generator.Generate(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: briefPrompt},
		{Role: ai.RoleUser, Content: merged.DetailedSummary},
	})
	if err == nil && strings.TrimSpace(brief) != "" {
		merged.BriefSummary = strings.TrimSpace(brief)
	} else if err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Brief summary merge failed, keeping first part", zap.Error(err))
	}
	return merged, nil
}

func (s *Service) summarize(ctx context.Context, text string) (*entities.Summary, error) {
	reply, _, err := s.generator.Generate(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: summaryPrompt},
		{Role: ai.RoleUser, Content: text},
	})
	if err != nil {
		return nil, err
	}
	return ParseSummary(reply)
}
