package repositories

import (
	"context"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// VectorMatch is one nearest-neighbour hit; Distance is the squared L2 distance to the query
type VectorMatch struct {
	Chunk    entities.IndexedChunk
	Distance float64
}

// VectorStore is a vector database with named, independently droppable collections.
// Operations on a missing collection return entities.ErrCollectionNotFound.
type VectorStore interface {
	// CreateCollection creates an empty collection for vectors of width dim
	CreateCollection(ctx context.Context, name string, dim int) error

	// HasCollection reports whether the collection exists
	HasCollection(ctx context.Context, name string) (bool, error)

	// DropCollection removes the collection; false means it did not exist
	DropCollection(ctx context.Context, name string) (bool, error)

	// Upsert inserts or replaces chunks by id
	Upsert(ctx context.Context, name string, chunks []entities.IndexedChunk) error

	// Query returns up to k matches ordered by ascending distance
	Query(ctx context.Context, name string, vector []float32, k int) ([]VectorMatch, error)

	// Count returns the number of vectors in the collection
	Count(ctx context.Context, name string) (int, error)
}
