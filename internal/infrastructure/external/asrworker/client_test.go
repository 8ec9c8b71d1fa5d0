package asrworker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("RIFF fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHealthy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"healthy", http.StatusOK, `{"status":"healthy"}`, true},
		{"degraded", http.StatusOK, `{"status":"loading"}`, false},
		{"server error", http.StatusInternalServerError, `{"status":"healthy"}`, false},
		{"garbage", http.StatusOK, `not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" || r.Method != http.MethodGet {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/", time.Minute, time.Second, nil)
			if got := c.Healthy(context.Background()); got != tt.want {
				t.Fatalf("Healthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute, 50*time.Millisecond, nil)
	start := time.Now()
	if c.Healthy(context.Background()) {
		t.Fatalf("slow worker should be unhealthy")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("health check ignored its timeout")
	}
}

func TestHealthyUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Minute, 200*time.Millisecond, nil)
	if c.Healthy(context.Background()) {
		t.Fatalf("unreachable worker should be unhealthy")
	}
}

func TestTranscribeSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "lecture.mp3" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("content type = %q", ct)
		}
		if lang := r.FormValue("language"); lang != "kk" {
			t.Errorf("language = %q", lang)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":               "success",
			"segments":             []map[string]any{{"start": 0, "end": 1.25, "text": "сәлем"}},
			"language":             "kk",
			"duration":             1.25,
			"language_probability": 0.97,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute, time.Second, nil)
	res, err := c.Transcribe(context.Background(), writeAudio(t, "lecture.mp3"), "kk")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Segments) != 1 || res.Segments[0].Text != "сәлем" || res.Duration != 1.25 || res.LanguageProbability != 0.97 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTranscribeOmitsEmptyLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Errorf("language field should be omitted")
		}
		io.WriteString(w, `{"status":"success","segments":[],"language":"en","duration":0}`)
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Minute, time.Second, nil).Transcribe(context.Background(), writeAudio(t, "a.wav"), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Segments == nil {
		t.Fatalf("segments should be non-nil")
	}
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusBadGateway, "worker overloaded", "worker overloaded"},
		{"status error", http.StatusOK, `{"status":"error","error":"CUDA out of memory"}`, "CUDA out of memory"},
		{"bad json", http.StatusOK, `{`, "invalid ASR worker response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Minute, time.Second, nil).Transcribe(context.Background(), writeAudio(t, "a.ogg"), "")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTranscribeAcceptsAny2xx(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				io.WriteString(w, `{"status":"success","segments":[{"start":0,"end":1,"text":"hi"}],"language":"en","duration":1}`)
			}))
			defer srv.Close()

			res, err := NewClient(srv.URL, time.Minute, time.Second, nil).Transcribe(context.Background(), writeAudio(t, "a.mp3"), "")
			if err != nil {
				t.Fatalf("status %d: %v", status, err)
			}
			if len(res.Segments) != 1 {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestTranscribeStreamsLargeFile(t *testing.T) {
	audio := bytes.Repeat([]byte("0123456789abcdef"), 256*1024)
	path := filepath.Join(t.TempDir(), "long.flac")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != -1 {
			t.Errorf("body should be streamed, got content length %d", r.ContentLength)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		got, _ := io.ReadAll(file)
		if !bytes.Equal(got, audio) {
			t.Errorf("received %d bytes, want %d", len(got), len(audio))
		}
		io.WriteString(w, `{"status":"success","segments":[],"language":"en","duration":0}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Minute, time.Second, nil).Transcribe(context.Background(), path, "en"); err != nil {
		t.Fatal(err)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Minute, time.Second, nil)
	if _, err := c.Transcribe(context.Background(), "/does/not/exist.mp3", ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.mp3":  "audio/mpeg",
		"a.WAV":  "audio/wav",
		"a.m4a":  "audio/mp4",
		"a.ogg":  "audio/ogg",
		"a.flac": "audio/flac",
		"a.webm": "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}
