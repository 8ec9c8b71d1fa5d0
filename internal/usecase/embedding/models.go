package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// Encoder is the remote embeddings API used by OpenAIModel
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIModel embeds through an OpenAI compatible embeddings endpoint
type OpenAIModel struct {
	encoder   Encoder
	dimension int
}

// NewOpenAIModel wraps an embeddings client producing vectors of the given width
func NewOpenAIModel(encoder Encoder, dimension int) (*OpenAIModel, error) {
	if encoder == nil {
		return nil, fmt.Errorf("embeddings client is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive")
	}
	return &OpenAIModel{encoder: encoder, dimension: dimension}, nil
}

func (m *OpenAIModel) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := m.encoder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		if len(v) != m.dimension {
			return nil, fmt.Errorf("embedding %d has width %d, expected %d", i, len(v), m.dimension)
		}
	}
	return vectors, nil
}

func (m *OpenAIModel) Dimension() int { return m.dimension }

// HashModel is a deterministic bag-of-words feature hashing model.
// It needs no network or model files and keeps lexical overlap meaningful,
// which makes it the offline backend.
type HashModel struct {
	dimension int
}

// NewHashModel creates a hashing model with the given width
func NewHashModel(dimension int) *HashModel {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashModel{dimension: dimension}
}

func (m *HashModel) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.encodeOne(text)
	}
	return out, nil
}

func (m *HashModel) encodeOne(text string) []float32 {
	v := make([]float32, m.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
	})
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(m.dimension))
		// Sign bit spreads collisions around zero
		if sum&(1<<63) != 0 {
			v[idx] -= 1
		} else {
			v[idx] += 1
		}
	}
	return v
}

func (m *HashModel) Dimension() int { return m.dimension }
