package lecture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

// AllowedExtensions are the accepted audio container extensions
var AllowedExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".webm", ".flac"}

const (
	partSuffix         = ".part"
	snippetRadius      = 80
	defaultSearchLimit = 50
)

// ServiceConfig holds filesystem locations
type ServiceConfig struct {
	AudioDir      string
	UploadTempDir string
}

// UploadInput describes a new lecture; Body is only read by Upload
type UploadInput struct {
	UserID    uuid.UUID
	Filename  string
	Title     string
	Language  string
	Subject   string
	GroupName string
	Body      io.Reader
}

// SearchResult is one lecture matched by title or transcript text
type SearchResult struct {
	Lecture *entities.Lecture
	Snippet string
	MatchIn string
}

// Service is the lecture application service
type Service struct {
	repo     repositories.LectureRepository
	blobs    repositories.BlobStore
	progress repositories.ProgressCache
	queue    Submitter
	indexer  Indexer
	cfg      ServiceConfig
	logger   *zap.Logger
}

// NewService creates the lecture service; progress may be nil
func NewService(
	repo repositories.LectureRepository,
	blobs repositories.BlobStore,
	progress repositories.ProgressCache,
	queue Submitter,
	indexer Indexer,
	cfg ServiceConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		blobs:    blobs,
		progress: progress,
		queue:    queue,
		indexer:  indexer,
		cfg:      cfg,
		logger:   logger,
	}
}

// ValidateExtension returns the lower-cased extension of filename if it is allowed
func ValidateExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return ext, fmt.Errorf("%w: %q", entities.ErrUnsupportedAudio, ext)
}

// Upload stores the audio, creates a pending lecture and queues it
func (s *Service) Upload(ctx context.Context, in UploadInput) (*entities.Lecture, error) {
	ext, err := ValidateExtension(in.Filename)
	if err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, fmt.Errorf("%w: empty audio body", entities.ErrInvalidRequest)
	}

	id := uuid.NewString()
	audioPath := filepath.Join(s.cfg.AudioDir, id+ext)
	if err := writeFile(audioPath, in.Body); err != nil {
		return nil, fmt.Errorf("failed to store audio: %w", err)
	}

	return s.createAndQueue(ctx, id, audioPath, in)
}

// InitUpload opens a chunked upload session and returns its id
func (s *Service) InitUpload(ctx context.Context) (string, error) {
	uploadID := uuid.NewString()
	if err := os.MkdirAll(filepath.Join(s.cfg.UploadTempDir, uploadID), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload session: %w", err)
	}
	return uploadID, nil
}

// UploadChunk stores one numbered part of a chunked upload
func (s *Service) UploadChunk(ctx context.Context, uploadID string, index int, body io.Reader) error {
	if index < 0 {
		return fmt.Errorf("%w: chunk index must not be negative", entities.ErrInvalidRequest)
	}
	dir, err := s.uploadDir(uploadID)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, strconv.Itoa(index)+partSuffix), body)
}

// CompleteUpload assembles the parts in numeric order and processes the result
// as a lecture whose id is the upload id
func (s *Service) CompleteUpload(ctx context.Context, uploadID string, in UploadInput) (*entities.Lecture, error) {
	dir, err := s.uploadDir(uploadID)
	if err != nil {
		return nil, err
	}
	if in.Filename == "" {
		in.Filename = "upload_" + uploadID + ".mp3"
	}
	ext, err := ValidateExtension(in.Filename)
	if err != nil {
		return nil, err
	}

	parts, err := listParts(dir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", entities.ErrNoUploadChunks, uploadID)
	}

	audioPath := filepath.Join(s.cfg.AudioDir, uploadID+ext)
	if err := assemble(audioPath, parts); err != nil {
		return nil, fmt.Errorf("failed to assemble upload: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to remove upload parts", zap.String("upload_id", uploadID), zap.Error(err))
	}

	return s.createAndQueue(ctx, uploadID, audioPath, in)
}

func (s *Service) createAndQueue(ctx context.Context, id, audioPath string, in UploadInput) (*entities.Lecture, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.Filename
	}
	if title == "" {
		title = "Lecture " + time.Now().Format("2006-01-02 15:04")
	}

	lecture := entities.NewLecture(id, in.UserID, title, in.Filename, audioPath, strings.TrimSpace(in.Language))
	lecture.Subject = strings.TrimSpace(in.Subject)
	lecture.GroupName = strings.TrimSpace(in.GroupName)

	if err := s.repo.Create(ctx, lecture); err != nil {
		_ = os.Remove(audioPath)
		return nil, fmt.Errorf("failed to create lecture: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Lecture uploaded",
			zap.String("lecture_id", id),
			zap.String("audio_path", audioPath),
		)
	}

	// A lecture that fails to enqueue stays pending and is picked up by recovery
	if err := s.queue.Submit(ctx, Job{LectureID: id, AudioPath: audioPath, Language: lecture.Language}); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to queue lecture",
			zap.String("lecture_id", id),
			zap.Error(err),
		)
	}
	return lecture, nil
}

// Get returns the user's lecture with live progress when it is processing
func (s *Service) Get(ctx context.Context, userID uuid.UUID, id string) (*entities.Lecture, error) {
	lecture, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if lecture.Status == entities.LectureStatusProcessing && s.progress != nil {
		if p, ok, err := s.progress.GetProgress(ctx, id); err == nil && ok {
			lecture.ProcessingProgress = &p
		}
	}
	return lecture, nil
}

// List returns the user's lectures, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, filters repositories.LectureFilters) ([]*entities.Lecture, error) {
	return s.repo.List(ctx, userID, filters)
}

// Subjects returns the user's distinct subjects
func (s *Service) Subjects(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.ListSubjects(ctx, userID)
}

// Groups returns the user's distinct group names
func (s *Service) Groups(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.ListGroups(ctx, userID)
}

// Update edits title, subject or group; an empty string clears subject and group
func (s *Service) Update(ctx context.Context, userID uuid.UUID, id string, update repositories.LectureUpdate) (*entities.Lecture, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", entities.ErrInvalidRequest)
	}
	if update.Title != nil || update.Subject != nil || update.GroupName != nil {
		if err := s.repo.UpdateFields(ctx, id, update); err != nil {
			return nil, err
		}
	}
	return s.owned(ctx, userID, id)
}

// Transcript returns the stored transcript of a completed lecture
func (s *Service) Transcript(ctx context.Context, userID uuid.UUID, id string) (*entities.Transcript, error) {
	lecture, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !lecture.IsReady() {
		return nil, fmt.Errorf("%w: status %s", entities.ErrLectureNotReady, lecture.Status)
	}
	return s.blobs.LoadTranscript(ctx, id)
}

// AudioPath returns the local audio file of the user's lecture
func (s *Service) AudioPath(ctx context.Context, userID uuid.UUID, id string) (*entities.Lecture, string, error) {
	lecture, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	candidates := []string{lecture.AudioPath}
	for _, ext := range AllowedExtensions {
		candidates = append(candidates, filepath.Join(s.cfg.AudioDir, id+ext))
	}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return lecture, p, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s", entities.ErrAudioMissing, id)
}

// Search matches the user's lectures by title, then by transcript text
func (s *Service) Search(ctx context.Context, userID uuid.UUID, query string, filters repositories.LectureFilters, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	lectures, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]SearchResult, 0)
	for _, l := range lectures {
		if len(results) >= limit {
			break
		}
		if q == "" {
			results = append(results, SearchResult{Lecture: l})
			continue
		}
		if strings.Contains(strings.ToLower(l.Title), q) {
			results = append(results, SearchResult{Lecture: l, MatchIn: "title"})
			continue
		}
		if !l.IsReady() {
			continue
		}
		t, err := s.blobs.LoadTranscript(ctx, l.ID)
		if err != nil {
			if !errors.Is(err, entities.ErrTranscriptNotFound) && s.logger != nil {
				s.logger.Warn("⚠️ Failed to load transcript for search", zap.String("lecture_id", l.ID), zap.Error(err))
			}
			continue
		}
		if snippet, ok := Snippet(t.FullText(), q, snippetRadius); ok {
			results = append(results, SearchResult{Lecture: l, MatchIn: "transcript", Snippet: snippet})
		}
	}
	return results, nil
}

// Delete removes the lecture and everything derived from it.
// Already-missing artifacts are ignored.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	lecture, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lecture: %w", err)
	}

	if err := s.blobs.DeleteTranscript(ctx, id); err != nil {
		s.warn("transcript", id, err)
	}
	if err := s.blobs.DeleteSummary(ctx, id); err != nil {
		s.warn("summary", id, err)
	}
	if lecture.AudioPath != "" {
		if err := os.Remove(lecture.AudioPath); err != nil && !os.IsNotExist(err) {
			s.warn("audio", id, err)
		}
	}
	if _, err := s.indexer.DeleteLecture(ctx, id); err != nil {
		s.warn("vectors", id, err)
	}
	if s.progress != nil {
		if err := s.progress.ClearProgress(ctx, id); err != nil {
			s.warn("progress", id, err)
		}
	}

	if s.logger != nil {
		s.logger.Info("🗑️ Lecture deleted", zap.String("lecture_id", id))
	}
	return nil
}

// Reindex rebuilds the vector collection from the stored transcript
func (s *Service) Reindex(ctx context.Context, id string) (int, error) {
	lecture, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if lecture == nil {
		return 0, fmt.Errorf("%w: %s", entities.ErrLectureNotFound, id)
	}
	if !lecture.IsReady() {
		return 0, fmt.Errorf("%w: status %s", entities.ErrLectureNotReady, lecture.Status)
	}
	t, err := s.blobs.LoadTranscript(ctx, id)
	if err != nil {
		return 0, err
	}
	n, err := s.indexer.IndexLecture(ctx, id, t.Segments)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", entities.ErrIndexFailed, err)
	}
	return n, nil
}

func (s *Service) owned(ctx context.Context, userID uuid.UUID, id string) (*entities.Lecture, error) {
	lecture, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lecture == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrLectureNotFound, id)
	}
	if !lecture.IsOwnedBy(userID) {
		return nil, entities.ErrForbidden
	}
	return lecture, nil
}

func (s *Service) uploadDir(uploadID string) (string, error) {
	if _, err := uuid.Parse(uploadID); err != nil {
		return "", fmt.Errorf("%w: %s", entities.ErrUploadNotFound, uploadID)
	}
	dir := filepath.Join(s.cfg.UploadTempDir, uploadID)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", entities.ErrUploadNotFound, uploadID)
	}
	return dir, nil
}

func (s *Service) warn(what, id string, err error) {
	if s.logger != nil {
		s.logger.Warn("⚠️ Failed to delete lecture artifact",
			zap.String("lecture_id", id),
			zap.String("artifact", what),
			zap.Error(err),
		)
	}
}

// Snippet returns text around the first case-insensitive match of query
func Snippet(text, query string, radius int) (string, bool) {
	lower := []rune(strings.ToLower(text))
	runes := []rune(text)
	q := []rune(strings.ToLower(query))
	if len(q) == 0 || len(lower) != len(runes) {
		return "", false
	}

	at := -1
	for i := 0; i+len(q) <= len(lower); i++ {
		if string(lower[i:i+len(q)]) == string(q) {
			at = i
			break
		}
	}
	if at < 0 {
		return "", false
	}

	start := at - radius
	if start < 0 {
		start = 0
	}
	end := at + len(q) + radius
	if end > len(runes) {
		end = len(runes)
	}
	snippet := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(runes) {
		snippet += "…"
	}
	return snippet, true
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

type part struct {
	index int
	path  string
}

func listParts(dir string) ([]part, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var parts []part
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, partSuffix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(name, partSuffix))
		if err != nil {
			continue
		}
		parts = append(parts, part{index: idx, path: filepath.Join(dir, name)})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })
	return parts, nil
}

func assemble(dst string, parts []part) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	for _, p := range parts {
		in, err := os.Open(p.path)
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}
