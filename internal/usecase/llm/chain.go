package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/pkg/ai"
)

// ErrNoProvider is returned when no provider has credentials
var ErrNoProvider = errors.New("no LLM provider configured")

// Provider is a chat completion backend
type Provider interface {
	Name() string
	Available() bool
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// Chain tries providers in order, starting with the one that last succeeded
type Chain struct {
	providers []Provider
	logger    *zap.Logger

	mu   sync.Mutex
	hint string
}

// NewChain builds a chain; unavailable providers are skipped at call time
func NewChain(providers []Provider, logger *zap.Logger) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Available reports whether any provider can be called
func (c *Chain) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Generate returns the first successful completion and the provider that produced it
func (c *Chain) Generate(ctx context.Context, messages []ai.Message) (string, string, error) {
	var lastErr error
	tried := 0
	for _, p := range c.ordered() {
		if !p.Available() {
			continue
		}
		tried++
		out, err := p.Complete(ctx, messages)
		if err == nil {
			c.setHint(p.Name())
			return out, p.Name(), nil
		}
		lastErr = err
		if c.logger != nil {
			c.logger.Warn("⚠️ LLM provider failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
		}
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
	}
	if tried == 0 {
		return "", "", ErrNoProvider
	}
	return "", "", fmt.Errorf("all LLM providers failed: %w", lastErr)
}

func (c *Chain) ordered() []Provider {
	c.mu.Lock()
	hint := c.hint
	c.mu.Unlock()

	if hint == "" {
		return c.providers
	}
	out := make([]Provider, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Name() == hint {
			out = append(out, p)
		}
	}
	for _, p := range c.providers {
		if p.Name() != hint {
			out = append(out, p)
		}
	}
	return out
}

func (c *Chain) setHint(name string) {
	c.mu.Lock()
	c.hint = name
	c.mu.Unlock()
}
