package lecture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

type serviceFixture struct {
	svc   *Service
	repo  *memRepo
	blobs *memBlobs
	idx   *fakeIndexer
	sub   *recordingSubmitter
	cfg   ServiceConfig
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dir := t.TempDir()
	f := &serviceFixture{
		repo:  newMemRepo(),
		blobs: newMemBlobs(),
		idx:   newFakeIndexer(),
		sub:   &recordingSubmitter{},
		cfg: ServiceConfig{
			AudioDir:      filepath.Join(dir, "audio"),
			UploadTempDir: filepath.Join(dir, "uploads"),
		},
	}
	f.svc = NewService(f.repo, f.blobs, nil, f.sub, f.idx, f.cfg, nil)
	return f
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"lecture.mp3", false},
		{"LECTURE.WAV", false},
		{"a.m4a", false},
		{"a.ogg", false},
		{"a.webm", false},
		{"a.flac", false},
		{"a.txt", true},
		{"noext", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateExtension(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, entities.ErrUnsupportedAudio) {
				t.Fatalf("expected ErrUnsupportedAudio, got %v", err)
			}
		})
	}
}

func TestUploadStoresAndQueues(t *testing.T) {
	f := newServiceFixture(t)
	user := uuid.New()

	l, err := f.svc.Upload(context.Background(), UploadInput{
		UserID:   user,
		Filename: "Lecture.MP3",
		Language: "kz",
		Subject:  " Physics ",
		Body:     strings.NewReader("audio-bytes"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if l.Status != entities.LectureStatusPending || l.Title != "Lecture.MP3" || l.Subject != "Physics" {
		t.Fatalf("unexpected lecture %+v", l)
	}
	if filepath.Ext(l.AudioPath) != ".mp3" || !strings.HasPrefix(filepath.Base(l.AudioPath), l.ID) {
		t.Fatalf("unexpected audio path %s", l.AudioPath)
	}
	data, err := os.ReadFile(l.AudioPath)
	if err != nil || string(data) != "audio-bytes" {
		t.Fatalf("audio not stored: %v", err)
	}
	if len(f.sub.jobs) != 1 || f.sub.jobs[0].LectureID != l.ID || f.sub.jobs[0].Language != "kz" {
		t.Fatalf("unexpected jobs %+v", f.sub.jobs)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.Upload(context.Background(), UploadInput{UserID: uuid.New(), Filename: "notes.pdf", Body: strings.NewReader("x")})
	if !errors.Is(err, entities.ErrUnsupportedAudio) {
		t.Fatalf("expected ErrUnsupportedAudio, got %v", err)
	}
	if len(f.sub.jobs) != 0 {
		t.Fatalf("nothing should be queued")
	}
}

func TestUploadSurvivesQueueFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.sub.err = errBoom
	l, err := f.svc.Upload(context.Background(), UploadInput{UserID: uuid.New(), Filename: "a.wav", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("upload should succeed and leave the lecture for recovery: %v", err)
	}
	if got := f.repo.get(l.ID); got.Status != entities.LectureStatusPending {
		t.Fatalf("lecture should stay pending, got %s", got.Status)
	}
}

func TestChunkedUpload(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	uploadID, err := f.svc.InitUpload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		index int
		data  string
	}{{10, "C"}, {2, "B"}, {1, "A"}} {
		if err := f.svc.UploadChunk(ctx, uploadID, c.index, strings.NewReader(c.data)); err != nil {
			t.Fatal(err)
		}
	}

	l, err := f.svc.CompleteUpload(ctx, uploadID, UploadInput{UserID: uuid.New(), Filename: "big.flac", Title: "Big"})
	if err != nil {
		t.Fatal(err)
	}
	if l.ID != uploadID {
		t.Fatalf("lecture id = %s, want upload id %s", l.ID, uploadID)
	}
	data, _ := os.ReadFile(l.AudioPath)
	if string(data) != "ABC" {
		t.Fatalf("parts assembled as %q, want numeric order ABC", data)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.UploadTempDir, uploadID)); !os.IsNotExist(err) {
		t.Fatalf("upload directory should be removed")
	}
}

func TestChunkedUploadErrors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	unknown := uuid.NewString()
	if err := f.svc.UploadChunk(ctx, unknown, 0, strings.NewReader("x")); !errors.Is(err, entities.ErrUploadNotFound) {
		t.Fatalf("expected ErrUploadNotFound, got %v", err)
	}
	if _, err := f.svc.CompleteUpload(ctx, "../../etc", UploadInput{Filename: "a.mp3"}); !errors.Is(err, entities.ErrUploadNotFound) {
		t.Fatalf("expected ErrUploadNotFound for path-like id, got %v", err)
	}

	empty, _ := f.svc.InitUpload(ctx)
	if _, err := f.svc.CompleteUpload(ctx, empty, UploadInput{Filename: "a.mp3"}); !errors.Is(err, entities.ErrNoUploadChunks) {
		t.Fatalf("expected ErrNoUploadChunks, got %v", err)
	}
	if err := f.svc.UploadChunk(ctx, empty, -1, strings.NewReader("x")); !errors.Is(err, entities.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestOwnershipAndReadiness(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	l := entities.NewLecture("lec", owner, "t", "a.mp3", "", "")
	f.repo.put(l)

	if _, err := f.svc.Get(ctx, uuid.New(), "lec"); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, owner, "missing"); !errors.Is(err, entities.ErrLectureNotFound) {
		t.Fatalf("expected ErrLectureNotFound, got %v", err)
	}
	if _, err := f.svc.Transcript(ctx, owner, "lec"); !errors.Is(err, entities.ErrLectureNotReady) {
		t.Fatalf("expected ErrLectureNotReady, got %v", err)
	}
	if _, err := f.svc.Reindex(ctx, "lec"); !errors.Is(err, entities.ErrLectureNotReady) {
		t.Fatalf("expected ErrLectureNotReady from reindex, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	f.repo.put(entities.NewLecture("lec", owner, "Old", "a.mp3", "", ""))

	subject, group := "Math", ""
	got, err := f.svc.Update(ctx, owner, "lec", repositories.LectureUpdate{Subject: &subject, GroupName: &group})
	if err != nil {
		t.Fatal(err)
	}
	if got.Subject != "Math" || got.Title != "Old" {
		t.Fatalf("unexpected lecture %+v", got)
	}

	blank := "  "
	if _, err := f.svc.Update(ctx, owner, "lec", repositories.LectureUpdate{Title: &blank}); !errors.Is(err, entities.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	audio := filepath.Join(t.TempDir(), "lec.mp3")
	_ = os.WriteFile(audio, []byte("x"), 0o644)
	l := entities.NewLecture("lec", owner, "t", "a.mp3", audio, "")
	l.MarkAsCompleted("ru", 1)
	f.repo.put(l)
	_ = f.blobs.SaveTranscript(ctx, "lec", &entities.Transcript{})
	f.idx.indexed["lec"] = 3

	if err := f.svc.Delete(ctx, uuid.New(), "lec"); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("non-owner delete should be forbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, owner, "lec"); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.repo.lectures["lec"]; ok {
		t.Fatalf("record not deleted")
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Fatalf("audio not deleted")
	}
	if _, err := f.blobs.LoadTranscript(ctx, "lec"); !errors.Is(err, entities.ErrTranscriptNotFound) {
		t.Fatalf("transcript not deleted")
	}
	if len(f.idx.deleted) != 1 {
		t.Fatalf("vectors not deleted")
	}
}

func TestDeleteToleratesMissingArtifacts(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()
	f.repo.put(entities.NewLecture("lec", owner, "t", "a.mp3", "/nonexistent/lec.mp3", ""))
	if err := f.svc.Delete(context.Background(), owner, "lec"); err != nil {
		t.Fatalf("delete should tolerate missing artifacts: %v", err)
	}
}

func TestReindexFromStoredTranscript(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	l := entities.NewLecture("lec", uuid.New(), "t", "a.mp3", "", "")
	l.MarkAsCompleted("en", 3)
	f.repo.put(l)
	_ = f.blobs.SaveTranscript(ctx, "lec", &entities.Transcript{Segments: []entities.Segment{{Text: "a"}, {Text: "b"}}})

	n, err := f.svc.Reindex(ctx, "lec")
	if err != nil || n != 2 {
		t.Fatalf("Reindex = %d, %v", n, err)
	}

	f.idx.err = errBoom
	if _, err := f.svc.Reindex(ctx, "lec"); !errors.Is(err, entities.ErrIndexFailed) || !errors.Is(err, errBoom) {
		t.Fatalf("Reindex error = %v, want ErrIndexFailed wrapping the cause", err)
	}
}

func TestSearch(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	byTitle := entities.NewLecture("a", owner, "Thermodynamics intro", "a.mp3", "", "")
	f.repo.put(byTitle)
	byText := entities.NewLecture("b", owner, "Lecture 2", "b.mp3", "", "")
	byText.MarkAsCompleted("en", 5)
	f.repo.put(byText)
	_ = f.blobs.SaveTranscript(ctx, "b", &entities.Transcript{Segments: []entities.Segment{{Text: "today we discuss entropy and THERMODYNAMICS laws"}}})
	f.repo.put(entities.NewLecture("c", uuid.New(), "Thermodynamics other user", "c.mp3", "", ""))

	results, err := f.svc.Search(ctx, owner, "thermodynamics", repositories.LectureFilters{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].MatchIn != "title" || results[1].MatchIn != "transcript" || results[1].Snippet == "" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestSnippet(t *testing.T) {
	text := strings.Repeat("x", 100) + " Энтропия растёт " + strings.Repeat("y", 100)
	s, ok := Snippet(text, "энтропия", 10)
	if !ok {
		t.Fatalf("expected match")
	}
	if !strings.Contains(s, "Энтропия") || !strings.HasPrefix(s, "…") || !strings.HasSuffix(s, "…") {
		t.Fatalf("unexpected snippet %q", s)
	}
	if _, ok := Snippet("abc", "zzz", 5); ok {
		t.Fatalf("unexpected match")
	}
}

func TestWriteFileCleansUpOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "f.bin")
	if err := writeFile(path, errReader{}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("partial file should be removed")
	}
	if err := writeFile(path, bytes.NewReader([]byte("ok"))); err != nil {
		t.Fatal(err)
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errBoom }
