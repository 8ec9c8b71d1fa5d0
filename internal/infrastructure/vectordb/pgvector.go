package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,63}$`)

// PGVectorStore keeps each collection in its own Postgres table with a pgvector column
type PGVectorStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repositories.VectorStore = (*PGVectorStore)(nil)

type chunkRow struct {
	ID             string
	LectureID      string
	ChunkIndex     int
	Text           string
	StartTime      float64
	EndTime        float64
	SegmentIndices datatypes.JSON
	Embedding      pgvector.Vector
	Distance       float64
}

// NewPGVectorStore enables the vector extension and returns the store
func NewPGVectorStore(ctx context.Context, db *gorm.DB, logger *zap.Logger) (*PGVectorStore, error) {
	if err := db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if logger != nil {
		logger.Info("✅ pgvector store ready")
	}
	return &PGVectorStore{db: db, logger: logger}, nil
}

func table(name string) (string, error) {
	if !collectionNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return `"` + name + `"`, nil
}

func (s *PGVectorStore) CreateCollection(ctx context.Context, name string, dim int) error {
	t, err := table(name)
	if err != nil {
		return err
	}
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dim)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(128) PRIMARY KEY,
		lecture_id VARCHAR(64) NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		start_time DOUBLE PRECISION NOT NULL,
		end_time DOUBLE PRECISION NOT NULL,
		segment_indices JSONB NOT NULL DEFAULT '[]',
		embedding vector(%d) NOT NULL
	)`, t, dim)
	return s.db.WithContext(ctx).Exec(ddl).Error
}

func (s *PGVectorStore) HasCollection(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.WithContext(ctx).Raw(
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?)`,
		name,
	).Scan(&exists).Error
	return exists, err
}

func (s *PGVectorStore) DropCollection(ctx context.Context, name string) (bool, error) {
	t, err := table(name)
	if err != nil {
		return false, err
	}
	exists, err := s.HasCollection(ctx, name)
	if err != nil || !exists {
		return false, err
	}
	if err := s.db.WithContext(ctx).Exec("DROP TABLE IF EXISTS " + t).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGVectorStore) Upsert(ctx context.Context, name string, chunks []entities.IndexedChunk) error {
	t, err := table(name)
	if err != nil {
		return err
	}
	exists, err := s.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return entities.ErrCollectionNotFound
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, lecture_id, chunk_index, text, start_time, end_time, segment_indices, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			lecture_id = EXCLUDED.lecture_id,
			chunk_index = EXCLUDED.chunk_index,
			text = EXCLUDED.text,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			segment_indices = EXCLUDED.segment_indices,
			embedding = EXCLUDED.embedding`, t)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ch := range chunks {
			indices, err := json.Marshal(ch.Chunk.SegmentIndices)
			if err != nil {
				return err
			}
			if err := tx.Exec(stmt,
				ch.ID, ch.LectureID, ch.ChunkIndex, ch.Chunk.Text,
				ch.Chunk.StartTime, ch.Chunk.EndTime,
				datatypes.JSON(indices), pgvector.NewVector(ch.Embedding),
			).Error; err != nil {
				return fmt.Errorf("failed to upsert %s: %w", ch.ID, err)
			}
		}
		return nil
	})
}

func (s *PGVectorStore) Query(ctx context.Context, name string, vector []float32, k int) ([]repositories.VectorMatch, error) {
	t, err := table(name)
	if err != nil {
		return nil, err
	}
	exists, err := s.HasCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, entities.ErrCollectionNotFound
	}
	if k <= 0 {
		return []repositories.VectorMatch{}, nil
	}

	var rows []chunkRow
	q := fmt.Sprintf(`SELECT id, lecture_id, chunk_index, text, start_time, end_time, segment_indices, embedding,
		power(embedding <-> @vec, 2) AS distance
		FROM %s ORDER BY embedding <-> @vec, chunk_index LIMIT @k`, t)
	args := map[string]interface{}{"vec": pgvector.NewVector(vector), "k": k}
	if err := s.db.WithContext(ctx).Raw(q, args).Scan(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]repositories.VectorMatch, 0, len(rows))
	for _, r := range rows {
		var indices []int
		if len(r.SegmentIndices) > 0 {
			if err := json.Unmarshal(r.SegmentIndices, &indices); err != nil && s.logger != nil {
				s.logger.Warn("⚠️ Corrupt segment indices", zap.String("chunk_id", r.ID), zap.Error(err))
			}
		}
		matches = append(matches, repositories.VectorMatch{
			Chunk: entities.IndexedChunk{
				ID:         r.ID,
				LectureID:  r.LectureID,
				ChunkIndex: r.ChunkIndex,
				Chunk: entities.Chunk{
					Text:           r.Text,
					StartTime:      r.StartTime,
					EndTime:        r.EndTime,
					SegmentIndices: indices,
				},
				Embedding: r.Embedding.Slice(),
			},
			Distance: r.Distance,
		})
	}
	return matches, nil
}

func (s *PGVectorStore) Count(ctx context.Context, name string) (int, error) {
	t, err := table(name)
	if err != nil {
		return 0, err
	}
	exists, err := s.HasCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, entities.ErrCollectionNotFound
	}
	var n int64
	if err := s.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM " + t).Scan(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
