package vectordb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
)

// MemoryStore is an in-process vector store doing exact nearest-neighbour search
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dim    int
	chunks map[string]entities.IndexedChunk
}

var _ repositories.VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) CreateCollection(ctx context.Context, name string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dim != dim {
			return fmt.Errorf("collection %s exists with dimension %d", name, c.dim)
		}
		return nil
	}
	s.collections[name] = &memoryCollection{dim: dim, chunks: make(map[string]entities.IndexedChunk)}
	return nil
}

func (s *MemoryStore) HasCollection(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *MemoryStore) DropCollection(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return false, nil
	}
	delete(s.collections, name)
	return true, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, name string, chunks []entities.IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return entities.ErrCollectionNotFound
	}
	for _, ch := range chunks {
		if len(ch.Embedding) != c.dim {
			return fmt.Errorf("chunk %s has dimension %d, collection expects %d", ch.ID, len(ch.Embedding), c.dim)
		}
	}
	for _, ch := range chunks {
		ch.Embedding = append([]float32(nil), ch.Embedding...)
		c.chunks[ch.ID] = ch
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, name string, vector []float32, k int) ([]repositories.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, entities.ErrCollectionNotFound
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("query has dimension %d, collection expects %d", len(vector), c.dim)
	}
	if k <= 0 {
		return []repositories.VectorMatch{}, nil
	}

	matches := make([]repositories.VectorMatch, 0, len(c.chunks))
	for _, ch := range c.chunks {
		matches = append(matches, repositories.VectorMatch{
			Chunk:    ch,
			Distance: squaredL2(vector, ch.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance == matches[j].Distance {
			return matches[i].Chunk.ChunkIndex < matches[j].Chunk.ChunkIndex
		}
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) Count(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, entities.ErrCollectionNotFound
	}
	return len(c.chunks), nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
