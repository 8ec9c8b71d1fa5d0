package lecture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

type memRepo struct {
	mu       sync.Mutex
	lectures map[string]entities.Lecture
	progress []float64
}

func newMemRepo() *memRepo {
	return &memRepo{lectures: make(map[string]entities.Lecture)}
}

func (r *memRepo) put(l *entities.Lecture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lectures[l.ID] = *l
}

func (r *memRepo) get(id string) entities.Lecture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lectures[id]
}

func (r *memRepo) Create(ctx context.Context, l *entities.Lecture) error {
	r.put(l)
	return nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*entities.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lectures[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *memRepo) List(ctx context.Context, userID uuid.UUID, f repositories.LectureFilters) ([]*entities.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Lecture
	for _, l := range r.lectures {
		if l.UserID != userID {
			continue
		}
		if f.Subject != "" && l.Subject != f.Subject {
			continue
		}
		if f.GroupName != "" && l.GroupName != f.GroupName {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) ListByStatus(ctx context.Context, statuses ...entities.LectureStatus) ([]*entities.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Lecture
	for _, l := range r.lectures {
		for _, s := range statuses {
			if l.Status == s {
				l := l
				out = append(out, &l)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) ListSubjects(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}

func (r *memRepo) ListGroups(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}

func (r *memRepo) UpdateFields(ctx context.Context, id string, u repositories.LectureUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lectures[id]
	if u.Title != nil {
		l.Title = *u.Title
	}
	if u.Subject != nil {
		l.Subject = *u.Subject
	}
	if u.GroupName != nil {
		l.GroupName = *u.GroupName
	}
	r.lectures[id] = l
	return nil
}

func (r *memRepo) SaveState(ctx context.Context, l *entities.Lecture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lectures[l.ID]; !ok {
		return fmt.Errorf("%w: %s", entities.ErrLectureNotFound, l.ID)
	}
	r.lectures[l.ID] = *l
	return nil
}

func (r *memRepo) UpdateProgress(ctx context.Context, id string, p float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
	l, ok := r.lectures[id]
	if !ok {
		return nil
	}
	l.SetProgress(p)
	r.lectures[id] = l
	return nil
}

func (r *memRepo) SetHasSummary(ctx context.Context, id string, has bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lectures[id]
	l.HasSummary = has
	r.lectures[id] = l
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lectures, id)
	return nil
}

type memBlobs struct {
	mu          sync.Mutex
	transcripts map[string]*entities.Transcript
	summaries   map[string]*entities.Summary
}

func newMemBlobs() *memBlobs {
	return &memBlobs{
		transcripts: make(map[string]*entities.Transcript),
		summaries:   make(map[string]*entities.Summary),
	}
}

func (b *memBlobs) SaveTranscript(ctx context.Context, id string, t *entities.Transcript) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transcripts[id] = t
	return nil
}

func (b *memBlobs) LoadTranscript(ctx context.Context, id string) (*entities.Transcript, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.transcripts[id]
	if !ok {
		return nil, entities.ErrTranscriptNotFound
	}
	return t, nil
}

func (b *memBlobs) DeleteTranscript(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.transcripts, id)
	return nil
}

func (b *memBlobs) SaveSummary(ctx context.Context, id string, s *entities.Summary) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summaries[id] = s
	return nil
}

func (b *memBlobs) LoadSummary(ctx context.Context, id string) (*entities.Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.summaries[id]
	if !ok {
		return nil, entities.ErrSummaryNotFound
	}
	return s, nil
}

func (b *memBlobs) DeleteSummary(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.summaries, id)
	return nil
}

type fakeTranscriber struct {
	result   *entities.TranscriptionResult
	err      error
	panicVal interface{}
	block    bool
	hang     bool
	gate     chan struct{}
	started  chan struct{}
	progress []float64
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string, total float64, onProgress func(float64)) (*entities.TranscriptionResult, error) {
	if f.panicVal != nil {
		panic(f.panicVal)
	}
	if f.started != nil {
		close(f.started)
	}
	if f.hang {
		select {}
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.gate != nil {
		<-f.gate
	}
	for _, p := range f.progress {
		onProgress(p)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeIndexer struct {
	mu      sync.Mutex
	err     error
	failN   int
	indexed map[string]int
	deleted []string
	calls   int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: make(map[string]int)}
}

func (f *fakeIndexer) IndexLecture(ctx context.Context, id string, segments []entities.Segment) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failN > 0 {
		f.failN--
		return 0, errors.New("dial tcp 127.0.0.1:8000: connection refused")
	}
	if f.err != nil {
		return 0, f.err
	}
	f.indexed[id] = len(segments)
	return len(segments), nil
}

func (f *fakeIndexer) DeleteLecture(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	_, ok := f.indexed[id]
	delete(f.indexed, id)
	return ok, nil
}

func (f *fakeIndexer) SearchAllLectures(ctx context.Context, ids []string, q string, k int, min float64) ([]entities.LectureHits, error) {
	return []entities.LectureHits{}, nil
}

type fixedProber struct {
	d   float64
	err error
}

func (p fixedProber) Duration(ctx context.Context, path string) (float64, error) {
	return p.d, p.err
}

type recordingSubmitter struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (s *recordingSubmitter) Submit(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

var errBoom = errors.New("boom")
