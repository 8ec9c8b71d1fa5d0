package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/lecture-assistant/errors"
	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/storage"
	httpmw "github.com/johnquangdev/lecture-assistant/internal/infrastructure/http/middleware"
	lectureUsecase "github.com/johnquangdev/lecture-assistant/internal/usecase/lecture"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/llm"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
	"github.com/johnquangdev/lecture-assistant/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/lecture-assistant/pkg/validator"
)

type stubRepo struct {
	repositories.LectureRepository
	mu       sync.Mutex
	lectures map[string]*entities.Lecture
}

func (r *stubRepo) Create(ctx context.Context, l *entities.Lecture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.lectures[l.ID] = &cp
	return nil
}

func (r *stubRepo) FindByID(ctx context.Context, id string) (*entities.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lectures[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *stubRepo) List(ctx context.Context, userID uuid.UUID, f repositories.LectureFilters) ([]*entities.Lecture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Lecture
	for _, l := range r.lectures {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lectures, id)
	return nil
}

type nopSubmitter struct{}

func (nopSubmitter) Submit(ctx context.Context, job lectureUsecase.Job) error { return nil }

type nopIndexer struct{}

func (nopIndexer) IndexLecture(ctx context.Context, id string, s []entities.Segment) (int, error) {
	return len(s), nil
}
func (nopIndexer) DeleteLecture(ctx context.Context, id string) (bool, error) { return true, nil }
func (nopIndexer) SearchAllLectures(ctx context.Context, ids []string, q string, k int, min float64) ([]entities.LectureHits, error) {
	return nil, nil
}

type fixture struct {
	e       *echo.Echo
	repo    *stubRepo
	blobs   *storage.LocalBlobStore
	manager *jwt.Manager
	user    uuid.UUID
	token   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewLocalBlobStore(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatal(err)
	}
	repo := &stubRepo{lectures: map[string]*entities.Lecture{}}
	svc := lectureUsecase.NewService(repo, blobs, nil, nopSubmitter{}, nopIndexer{}, lectureUsecase.ServiceConfig{
		AudioDir:      filepath.Join(dir, "audio"),
		UploadTempDir: filepath.Join(dir, "uploads"),
	}, nil)

	manager := jwt.NewManager("test-secret", time.Hour)
	user := uuid.New()
	token, err := manager.GenerateAccessToken(user, "student@example.com", "")
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	e.Validator = pkgvalidator.New()
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg, NewLectureHandler(svc, nil), NewChatHandler(nil, nil), NewSummaryHandler(nil, nil), httpmw.EchoAuth(manager)).Setup(e)

	return &fixture{e: e, repo: repo, blobs: blobs, manager: manager, user: user, token: token}
}

func (f *fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func uploadRequest(t *testing.T, filename, title string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake audio"))
	w.WriteField("title", title)
	w.WriteField("subject", "Physics")
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/lectures/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLanguages(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/languages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if langs, _ := body["data"].([]interface{}); len(langs) != 3 {
		t.Fatalf("unexpected languages %v", body["data"])
	}
}

func TestUploadAndGet(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, uploadRequest(t, "lecture.MP3", "Mechanics"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	data := body["data"].(map[string]interface{})
	if data["status"] != "pending" || data["title"] != "Mechanics" || data["subject"] != "Physics" {
		t.Fatalf("unexpected lecture %v", data)
	}
	id := data["id"].(string)

	rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/lectures/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/v1/lectures", nil))
	if list, _ := body["data"].([]interface{}); rec.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list = %d %v", rec.Code, body)
	}
}

func TestUploadRejectsExtension(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, uploadRequest(t, "notes.txt", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := body["code"].(float64); errors.ErrorCode(code) != errors.ErrorCode_UNSUPPORTED_AUDIO {
		t.Fatalf("code = %v", code)
	}
}

func TestOwnershipAndMissing(t *testing.T) {
	f := newFixture(t)
	other := entities.NewLecture("other", uuid.New(), "Theirs", "a.mp3", "", "")
	f.repo.Create(context.Background(), other)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"foreign lecture", "/v1/lectures/other", http.StatusForbidden},
		{"missing lecture", "/v1/lectures/nope", http.StatusNotFound},
		{"foreign transcript", "/v1/lectures/other/transcript", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTranscriptNotReady(t *testing.T) {
	f := newFixture(t)
	l := entities.NewLecture("mine", f.user, "Mine", "a.mp3", "", "")
	f.repo.Create(context.Background(), l)

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/lectures/mine/transcript", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if errors.ErrorCode(body["code"].(float64)) != errors.ErrorCode_LECTURE_NOT_READY {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestChunkedUpload(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, httptest.NewRequest(http.MethodPost, "/v1/lectures/upload/init", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("init status = %d", rec.Code)
	}
	uploadID := body["data"].(map[string]interface{})["upload_id"].(string)

	for i, chunk := range []string{"world", "hello "} {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, _ := w.CreateFormFile("file", "blob")
		part.Write([]byte(chunk))
		w.Close()
		// chunks arrive out of order
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/lectures/upload/%s/chunk/%d", uploadID, 1-i), &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		if rec, _ := f.do(t, req); rec.Code != http.StatusOK {
			t.Fatalf("chunk status = %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/lectures/upload/"+uploadID+"/complete", bytes.NewBufferString(`{"filename":"talk.wav","title":"Talk"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec, body = f.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}
	if id := body["data"].(map[string]interface{})["id"]; id != uploadID {
		t.Fatalf("lecture id = %v, want upload id", id)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/lectures/upload/"+uuid.NewString()+"/complete", bytes.NewBufferString(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if rec, _ := f.do(t, req); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown upload status = %d", rec.Code)
	}
}

func TestAdminReindexRequiresRole(t *testing.T) {
	f := newFixture(t)
	l := entities.NewLecture("done", f.user, "Done", "a.mp3", "", "")
	l.MarkAsCompleted("en", 5)
	f.repo.Create(context.Background(), l)
	f.blobs.SaveTranscript(context.Background(), "done", &entities.Transcript{Segments: []entities.Segment{{Start: 0, End: 5, Text: "hi"}}})

	rec, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/v1/admin/lectures/done/reindex", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d", rec.Code)
	}

	admin, _ := f.manager.GenerateAccessToken(f.user, "", jwt.RoleAdmin)
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/lectures/done/reindex", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec, body := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, body %s", rec.Code, rec.Body.String())
	}
	if chunks := body["data"].(map[string]interface{})["chunks"]; chunks != float64(1) {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err  error
		code errors.ErrorCode
		http int
	}{
		{fmt.Errorf("%w: x", entities.ErrLectureNotFound), errors.ErrorCode_LECTURE_NOT_FOUND, http.StatusNotFound},
		{entities.ErrForbidden, errors.ErrorCode_FORBIDDEN, http.StatusForbidden},
		{fmt.Errorf("%w: %q", entities.ErrUnsupportedAudio, ".txt"), errors.ErrorCode_UNSUPPORTED_AUDIO, http.StatusBadRequest},
		{fmt.Errorf("%w: busy", entities.ErrLectureAlreadyQueued), errors.ErrorCode_LECTURE_ALREADY_QUEUED, http.StatusConflict},
		{entities.ErrSummaryNotFound, errors.ErrorCode_INTERNAL, http.StatusInternalServerError},
		{llm.ErrNoProvider, errors.ErrorCode_AI_SERVICE_UNAVAILABLE, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %w", entities.ErrIndexFailed, stdErrors.New("dimension mismatch")), errors.ErrorCode_AI_INDEX_FAILED, http.StatusInternalServerError},
		{fmt.Errorf("%w: disk full", entities.ErrStorageFailed), errors.ErrorCode_INTEGRATION_STORAGE_FAILED, http.StatusInternalServerError},
		{errors.ErrInvalidPayload(), errors.ErrorCode_INVALID_PAYLOAD, http.StatusBadRequest},
		{stdErrors.New("boom"), errors.ErrorCode_INTERNAL, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got := ToAppError(tt.err, "id")
		if got.Code != tt.code || got.HTTPCode != tt.http {
			t.Errorf("ToAppError(%v) = %s/%d, want %s/%d", tt.err, got.Code, got.HTTPCode, tt.code, tt.http)
		}
	}

	ext := ToAppError(fmt.Errorf("%w: %q", entities.ErrUnsupportedAudio, ".txt"), "")
	if ext.Details["extension"] != ".txt" {
		t.Errorf("extension detail = %q", ext.Details["extension"])
	}
}

func TestRoutesAreDocumented(t *testing.T) {
	f := newFixture(t)

	documented := map[string]bool{}
	for _, file := range []string{"lecture.go", "chat.go"} {
		src, err := os.ReadFile(file)
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range strings.Split(string(src), "\n") {
			rest, ok := strings.CutPrefix(line, "// @Router")
			if !ok {
				continue
			}
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				t.Fatalf("malformed @Router line %q", line)
			}
			path := "/v1" + strings.NewReplacer("{", ":", "}", "").Replace(fields[0])
			method := strings.ToUpper(strings.Trim(fields[1], "[]"))
			documented[method+" "+path] = true
		}
	}

	for _, r := range f.e.Routes() {
		switch r.Method {
		case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
		default:
			continue
		}
		if !strings.HasPrefix(r.Path, "/v1/") {
			continue
		}
		if !documented[r.Method+" "+r.Path] {
			t.Errorf("route %s %s has no @Router annotation", r.Method, r.Path)
		}
	}
}
