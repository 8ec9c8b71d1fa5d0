package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// DefaultBatchSize is the number of documents sent to the model per call
const DefaultBatchSize = 32

// Model turns texts into fixed width vectors
type Model interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// ModelFactory builds the model on first use
type ModelFactory func() (Model, error)

// Embedder owns a lazily loaded model and serializes calls into it
type Embedder struct {
	factory   ModelFactory
	normalize bool
	logger    *zap.Logger

	once     sync.Once
	model    Model
	modelErr error

	// mu serializes Encode calls
	mu sync.Mutex
}

// NewEmbedder creates an embedder; vectors are L2 normalized when normalize is set
func NewEmbedder(factory ModelFactory, normalize bool, logger *zap.Logger) *Embedder {
	return &Embedder{
		factory:   factory,
		normalize: normalize,
		logger:    logger,
	}
}

func (e *Embedder) load() (Model, error) {
	e.once.Do(func() {
		e.model, e.modelErr = e.factory()
		if e.modelErr != nil {
			if e.logger != nil {
				e.logger.Error("❌ Failed to load embedding model", zap.Error(e.modelErr))
			}
			return
		}
		if e.logger != nil {
			e.logger.Info("✅ Embedding model loaded", zap.Int("dimension", e.model.Dimension()))
		}
	})
	return e.model, e.modelErr
}

// Dimension returns the vector width of the underlying model
func (e *Embedder) Dimension() (int, error) {
	m, err := e.load()
	if err != nil {
		return 0, err
	}
	return m.Dimension(), nil
}

// Embed returns exactly one vector per input text, in order.
// Empty strings are embedded like any other text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	m, err := e.load()
	if err != nil {
		return nil, fmt.Errorf("embedding model unavailable: %w", err)
	}

	e.mu.Lock()
	vectors, err := m.Encode(ctx, texts)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("model returned %d vectors for %d texts", len(vectors), len(texts))
	}

	if e.normalize {
		for i := range vectors {
			vectors[i] = Normalize(vectors[i])
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds docs in batches of batchSize and concatenates the results in order
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		vectors, err := e.Embed(ctx, docs[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Normalize scales v to unit length; the zero vector is returned unchanged
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
