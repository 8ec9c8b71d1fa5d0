package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

func TestLocalBlobStoreTranscript(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := store.LoadTranscript(ctx, "lec"); !errors.Is(err, entities.ErrTranscriptNotFound) {
		t.Fatalf("expected ErrTranscriptNotFound, got %v", err)
	}

	in := &entities.Transcript{Segments: []entities.Segment{{Start: 0, End: 1.5, Text: "hi"}}, Language: "ru", Duration: 1.5}
	if err := store.SaveTranscript(ctx, "lec", in); err != nil {
		t.Fatal(err)
	}
	out, err := store.LoadTranscript(ctx, "lec")
	if err != nil {
		t.Fatal(err)
	}
	if out.Language != "ru" || len(out.Segments) != 1 || out.Segments[0].End != 1.5 {
		t.Fatalf("unexpected transcript %+v", out)
	}

	if err := store.DeleteTranscript(ctx, "lec"); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteTranscript(ctx, "lec"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestLocalBlobStoreCorruptDocument(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalBlobStore(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, transcriptKey("lec")), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = store.LoadTranscript(context.Background(), "lec")
	if !errors.Is(err, entities.ErrStorageFailed) {
		t.Fatalf("expected ErrStorageFailed, got %v", err)
	}
	if errors.Is(err, entities.ErrTranscriptNotFound) {
		t.Fatalf("corrupt document must not read as missing")
	}
}

func TestLocalBlobStoreSummary(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := store.LoadSummary(ctx, "lec"); !errors.Is(err, entities.ErrSummaryNotFound) {
		t.Fatalf("expected ErrSummaryNotFound, got %v", err)
	}
	if err := store.SaveSummary(ctx, "lec", &entities.Summary{BriefSummary: "short"}); err != nil {
		t.Fatal(err)
	}
	s, err := store.LoadSummary(ctx, "lec")
	if err != nil || s.BriefSummary != "short" {
		t.Fatalf("unexpected summary %+v, %v", s, err)
	}
	if err := store.DeleteSummary(ctx, "lec"); err != nil {
		t.Fatal(err)
	}
}

