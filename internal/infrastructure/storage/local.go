package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// LocalBlobStore keeps transcript and summary documents as JSON files under a data directory
type LocalBlobStore struct {
	root string
}

// NewLocalBlobStore creates the data directory layout if needed
func NewLocalBlobStore(root string) (*LocalBlobStore, error) {
	for _, dir := range []string{transcriptPrefix, summaryPrefix} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return &LocalBlobStore{root: root}, nil
}

func (l *LocalBlobStore) SaveTranscript(ctx context.Context, lectureID string, t *entities.Transcript) error {
	return l.writeJSON(transcriptKey(lectureID), t)
}

func (l *LocalBlobStore) LoadTranscript(ctx context.Context, lectureID string) (*entities.Transcript, error) {
	var t entities.Transcript
	if err := l.readJSON(transcriptKey(lectureID), &t, entities.ErrTranscriptNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

func (l *LocalBlobStore) DeleteTranscript(ctx context.Context, lectureID string) error {
	return l.remove(transcriptKey(lectureID))
}

func (l *LocalBlobStore) SaveSummary(ctx context.Context, lectureID string, s *entities.Summary) error {
	return l.writeJSON(summaryKey(lectureID), s)
}

func (l *LocalBlobStore) LoadSummary(ctx context.Context, lectureID string) (*entities.Summary, error) {
	var s entities.Summary
	if err := l.readJSON(summaryKey(lectureID), &s, entities.ErrSummaryNotFound); err != nil {
		return nil, err
	}
	return &s, nil
}

func (l *LocalBlobStore) DeleteSummary(ctx context.Context, lectureID string) error {
	return l.remove(summaryKey(lectureID))
}

// writeJSON writes through a temp file and rename so readers never see a partial document
func (l *LocalBlobStore) writeJSON(key string, v interface{}) error {
	if err := l.write(key, v); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrStorageFailed, err)
	}
	return nil
}

func (l *LocalBlobStore) write(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	path := filepath.Join(l.root, key)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (l *LocalBlobStore) readJSON(key string, v interface{}, notFound error) error {
	data, err := os.ReadFile(filepath.Join(l.root, key))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrStorageFailed, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %w", entities.ErrStorageFailed, key, err)
	}
	return nil
}

func (l *LocalBlobStore) remove(key string) error {
	err := os.Remove(filepath.Join(l.root, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", entities.ErrStorageFailed, err)
	}
	return nil
}
