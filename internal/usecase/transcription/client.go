package transcription

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

// EngineInfo is what a local engine reports besides the segments
type EngineInfo struct {
	Language            string
	LanguageProbability float64
}

// Engine is a local speech recognizer. It calls emit for every decoded
// segment in order and must stop when ctx is cancelled.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string, emit func(entities.Segment)) (EngineInfo, error)
}

// EngineFactory builds the local engine on first use
type EngineFactory func() (Engine, error)

// RemoteProvider is an out-of-process transcription backend
type RemoteProvider interface {
	Name() string
	Healthy(ctx context.Context) bool
	Transcribe(ctx context.Context, audioPath, language string) (*entities.TranscriptionResult, error)
}

// ClientConfig tunes the client
type ClientConfig struct {
	LocalConcurrency int
	HealthTimeout    time.Duration
}

// Client picks a healthy remote provider and falls back to the local engine
type Client struct {
	providers     []RemoteProvider
	engineFactory EngineFactory
	healthTimeout time.Duration
	gate          chan struct{}
	logger        *zap.Logger

	engineOnce sync.Once
	engine     Engine
	engineErr  error

	hintMu sync.Mutex
	hint   string
}

// NewClient creates a transcription client. providers are tried in order;
// factory may be nil when no local engine is installed.
func NewClient(providers []RemoteProvider, factory EngineFactory, cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.LocalConcurrency <= 0 {
		cfg.LocalConcurrency = 1
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	return &Client{
		providers:     providers,
		engineFactory: factory,
		healthTimeout: cfg.HealthTimeout,
		gate:          make(chan struct{}, cfg.LocalConcurrency),
		logger:        logger,
	}
}

// NormalizeLanguage maps user supplied codes to recognizer codes.
// Empty means auto-detect.
func NormalizeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	switch lang {
	case "kz", "kazakh":
		return "kk"
	}
	return lang
}

// Transcribe converts the audio file into timestamped segments.
// onProgress receives values in [0,1] that never decrease; it is only called
// for the local engine and only when totalDuration is positive.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string, totalDuration float64, onProgress func(float64)) (*entities.TranscriptionResult, error) {
	lang := NormalizeLanguage(language)

	for _, p := range c.orderedProviders() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
		healthy := p.Healthy(hctx)
		cancel()
		if !healthy {
			if c.logger != nil {
				c.logger.Warn("⚠️ Remote ASR provider unhealthy, skipping",
					zap.String("provider", p.Name()),
				)
			}
			continue
		}

		if c.logger != nil {
			c.logger.Info("🎙️ Transcribing with remote provider",
				zap.String("provider", p.Name()),
				zap.String("audio_path", audioPath),
			)
		}

		result, err := p.Transcribe(ctx, audioPath, lang)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if c.logger != nil {
				c.logger.Warn("⚠️ Remote transcription failed, trying next",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
			}
			continue
		}

		c.setHint(p.Name())
		return normalizeResult(result), nil
	}

	if c.engineFactory == nil {
		return nil, fmt.Errorf("no remote provider succeeded and no local engine configured")
	}

	if len(c.providers) > 0 && c.logger != nil {
		c.logger.Info("🔁 Falling back to local ASR engine",
			zap.String("audio_path", audioPath),
		)
	}
	return c.transcribeLocal(ctx, audioPath, lang, totalDuration, onProgress)
}

func (c *Client) transcribeLocal(ctx context.Context, audioPath, lang string, totalDuration float64, onProgress func(float64)) (*entities.TranscriptionResult, error) {
	engine, err := c.localEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to load local engine: %w", err)
	}

	// Queue on the gate instead of failing
	select {
	case c.gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.gate }()

	reporter := newProgressReporter(totalDuration, onProgress)
	defer reporter.Close()

	var segments []entities.Segment
	info, err := engine.Transcribe(ctx, audioPath, lang, func(seg entities.Segment) {
		seg = normalizeSegment(seg)
		segments = append(segments, seg)
		reporter.Report(seg.End)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	language := info.Language
	if language == "" {
		language = lang
	}

	return &entities.TranscriptionResult{
		Segments:            segments,
		Language:            language,
		Duration:            lastEnd(segments),
		LanguageProbability: round(info.LanguageProbability, 2),
	}, nil
}

func (c *Client) localEngine() (Engine, error) {
	c.engineOnce.Do(func() {
		c.engine, c.engineErr = c.engineFactory()
		if c.engineErr == nil && c.logger != nil {
			c.logger.Info("✅ Local ASR engine loaded")
		}
	})
	return c.engine, c.engineErr
}

// orderedProviders returns the providers with the last successful one first
func (c *Client) orderedProviders() []RemoteProvider {
	c.hintMu.Lock()
	hint := c.hint
	c.hintMu.Unlock()

	if hint == "" || len(c.providers) < 2 {
		return c.providers
	}

	ordered := make([]RemoteProvider, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Name() == hint {
			ordered = append(ordered, p)
		}
	}
	for _, p := range c.providers {
		if p.Name() != hint {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func (c *Client) setHint(name string) {
	c.hintMu.Lock()
	c.hint = name
	c.hintMu.Unlock()
}

func normalizeResult(r *entities.TranscriptionResult) *entities.TranscriptionResult {
	if r == nil {
		return &entities.TranscriptionResult{}
	}
	for i := range r.Segments {
		r.Segments[i] = normalizeSegment(r.Segments[i])
	}
	r.Duration = lastEnd(r.Segments)
	r.LanguageProbability = round(r.LanguageProbability, 2)
	return r
}

func normalizeSegment(s entities.Segment) entities.Segment {
	return entities.Segment{
		Start: round(s.Start, 2),
		End:   round(s.End, 2),
		Text:  strings.TrimSpace(s.Text),
	}
}

func lastEnd(segments []entities.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
