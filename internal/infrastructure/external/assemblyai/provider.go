package assemblyai

import (
	"context"
	"fmt"
	"os"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

// Provider transcribes through the hosted AssemblyAI API
type Provider struct {
	client *aai.Client
	apiKey string
	logger *zap.Logger
}

// NewProvider creates the provider; the key falls back to ASSEMBLYAI_API_KEY
func NewProvider(cfg *config.AssemblyAIConfig, logger *zap.Logger) *Provider {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	return &Provider{
		client: aai.NewClient(apiKey),
		apiKey: apiKey,
		logger: logger,
	}
}

func (p *Provider) Name() string { return "assemblyai" }

// Healthy reports whether the provider is configured; the hosted API has no cheap probe
func (p *Provider) Healthy(ctx context.Context) bool {
	return p.apiKey != ""
}

// Transcribe uploads the file and waits for the transcript to complete
func (p *Provider) Transcribe(ctx context.Context, audioPath, language string) (*entities.TranscriptionResult, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	if p.logger != nil {
		p.logger.Info("📤 Uploading audio to AssemblyAI", zap.String("path", audioPath))
	}
	uploadURL, err := p.client.Upload(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to AssemblyAI: %w", err)
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(language)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	transcript, err := p.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("AssemblyAI transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "AssemblyAI transcription failed"
		if transcript.Error != nil {
			msg = fmt.Sprintf("AssemblyAI error: %s", *transcript.Error)
		}
		return nil, fmt.Errorf("%s", msg)
	}

	if p.logger != nil && transcript.ID != nil {
		p.logger.Info("✅ AssemblyAI transcript completed", zap.String("transcript_id", *transcript.ID))
	}
	return ToResult(transcript), nil
}

// ToResult maps an AssemblyAI transcript onto segments. Utterances are preferred;
// a transcript with text but no utterances becomes one segment.
func ToResult(t aai.Transcript) *entities.TranscriptionResult {
	res := &entities.TranscriptionResult{
		Language: string(t.LanguageCode),
		Segments: []entities.Segment{},
	}

	for _, utt := range t.Utterances {
		seg := entities.Segment{}
		if utt.Text != nil {
			seg.Text = strings.TrimSpace(*utt.Text)
		}
		if utt.Start != nil {
			seg.Start = float64(*utt.Start) / 1000.0
		}
		if utt.End != nil {
			seg.End = float64(*utt.End) / 1000.0
		}
		if seg.Text != "" {
			res.Segments = append(res.Segments, seg)
		}
	}

	if len(res.Segments) == 0 && t.Text != nil && strings.TrimSpace(*t.Text) != "" {
		seg := entities.Segment{Text: strings.TrimSpace(*t.Text)}
		if t.AudioDuration != nil {
			seg.End = float64(*t.AudioDuration)
		}
		res.Segments = append(res.Segments, seg)
	}
	return res
}
