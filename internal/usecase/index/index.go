package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/chunking"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/embedding"
)

const (
	DefaultTopK           = 5
	DefaultMinScore       = 0.3
	DefaultTopKPerLecture = 3
	DefaultGlobalMinScore = 0.25
	defaultEmbeddingBatch = embedding.DefaultBatchSize
)

// Index maintains one vector collection per lecture
type Index struct {
	store     repositories.VectorStore
	embedder  *embedding.Embedder
	chunker   *chunking.Chunker
	batchSize int
	locks     *collectionLocks
	logger    *zap.Logger
}

// NewIndex creates an index over store; a nil chunker uses the default window
func NewIndex(store repositories.VectorStore, embedder *embedding.Embedder, chunker *chunking.Chunker, batchSize int, logger *zap.Logger) *Index {
	if chunker == nil {
		chunker = chunking.Default()
	}
	if batchSize <= 0 {
		batchSize = defaultEmbeddingBatch
	}
	return &Index{
		store:     store,
		embedder:  embedder,
		chunker:   chunker,
		batchSize: batchSize,
		locks:     newCollectionLocks(),
		logger:    logger,
	}
}

// IndexLecture replaces the lecture's collection with freshly embedded chunks
// and returns how many chunks were stored. Chunk ids are stable per position,
// and any previous collection is dropped first so no stale chunk survives.
func (x *Index) IndexLecture(ctx context.Context, lectureID string, segments []entities.Segment) (int, error) {
	name := entities.CollectionName(lectureID)
	chunks := x.chunker.ChunkSegments(segments)

	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		var err error
		vectors, err = x.embedder.EmbedDocuments(ctx, texts, x.batchSize)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
	}

	unlock := x.locks.lock(name)
	defer unlock()

	if _, err := x.store.DropCollection(ctx, name); err != nil {
		return 0, fmt.Errorf("failed to drop old collection: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := x.store.CreateCollection(ctx, name, len(vectors[0])); err != nil {
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}

	indexed := make([]entities.IndexedChunk, len(chunks))
	for i, ch := range chunks {
		indexed[i] = entities.IndexedChunk{
			ID:         entities.ChunkID(lectureID, i),
			LectureID:  lectureID,
			ChunkIndex: i,
			Chunk:      ch,
			Embedding:  vectors[i],
		}
	}
	if err := x.store.Upsert(ctx, name, indexed); err != nil {
		return 0, fmt.Errorf("failed to upsert chunks: %w", err)
	}

	if x.logger != nil {
		x.logger.Info("📚 Lecture indexed",
			zap.String("lecture_id", lectureID),
			zap.Int("chunks", len(indexed)),
		)
	}
	return len(indexed), nil
}

// Search returns the lecture's chunks most similar to query, best first.
// A lecture that was never indexed yields no results.
func (x *Index) Search(ctx context.Context, lectureID, query string, topK int, minScore float64) ([]entities.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	name := entities.CollectionName(lectureID)

	unlock := x.locks.rlock(name)
	defer unlock()

	exists, err := x.store.HasCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []entities.ScoredChunk{}, nil
	}

	vector, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return x.probe(ctx, name, vector, topK, minScore)
}

// SearchAllLectures embeds query once and probes every listed lecture.
// Lectures without qualifying hits are omitted; results follow probe order.
func (x *Index) SearchAllLectures(ctx context.Context, lectureIDs []string, query string, topKPerLecture int, minScore float64) ([]entities.LectureHits, error) {
	if len(lectureIDs) == 0 || strings.TrimSpace(query) == "" {
		return []entities.LectureHits{}, nil
	}
	if topKPerLecture <= 0 {
		topKPerLecture = DefaultTopKPerLecture
	}

	vector, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]entities.LectureHits, 0)
	for _, id := range lectureIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits, err := x.probeLecture(ctx, id, vector, topKPerLecture, minScore)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			results = append(results, entities.LectureHits{LectureID: id, Chunks: hits})
		}
	}
	return results, nil
}

func (x *Index) probeLecture(ctx context.Context, lectureID string, vector []float32, k int, minScore float64) ([]entities.ScoredChunk, error) {
	name := entities.CollectionName(lectureID)
	unlock := x.locks.rlock(name)
	defer unlock()

	hits, err := x.probe(ctx, name, vector, k, minScore)
	if errors.Is(err, entities.ErrCollectionNotFound) {
		return nil, nil
	}
	return hits, err
}

func (x *Index) probe(ctx context.Context, name string, vector []float32, k int, minScore float64) ([]entities.ScoredChunk, error) {
	matches, err := x.store.Query(ctx, name, vector, k)
	if err != nil {
		if errors.Is(err, entities.ErrCollectionNotFound) {
			return []entities.ScoredChunk{}, err
		}
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	out := make([]entities.ScoredChunk, 0, len(matches))
	for _, m := range matches {
		score := Score(m.Distance)
		if score < minScore {
			continue
		}
		out = append(out, entities.ScoredChunk{
			Text:      m.Chunk.Chunk.Text,
			StartTime: m.Chunk.Chunk.StartTime,
			EndTime:   m.Chunk.Chunk.EndTime,
			Score:     score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// DeleteLecture drops the lecture's collection; false means nothing was indexed
func (x *Index) DeleteLecture(ctx context.Context, lectureID string) (bool, error) {
	name := entities.CollectionName(lectureID)
	unlock := x.locks.lock(name)
	defer unlock()

	return x.store.DropCollection(ctx, name)
}

// ChunkCount returns the number of indexed chunks, 0 for unknown lectures
func (x *Index) ChunkCount(ctx context.Context, lectureID string) (int, error) {
	name := entities.CollectionName(lectureID)
	unlock := x.locks.rlock(name)
	defer unlock()

	n, err := x.store.Count(ctx, name)
	if errors.Is(err, entities.ErrCollectionNotFound) {
		return 0, nil
	}
	return n, err
}

// Score converts a squared L2 distance between unit vectors to a similarity
// in [0,1], rounded to three decimals. For unit vectors 1 - d/2 is the cosine.
func Score(distance float64) float64 {
	s := 1 - distance/2
	s = math.Max(0, math.Min(1, s))
	return math.Round(s*1000) / 1000
}
