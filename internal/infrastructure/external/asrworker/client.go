package asrworker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// Client talks to a remote GPU transcription worker
type Client struct {
	baseURL       string
	http          *http.Client
	healthTimeout time.Duration
	logger        *zap.Logger
}

// TranscribeResponse is the worker's /transcribe payload
type TranscribeResponse struct {
	Status              string             `json:"status"`
	Segments            []entities.Segment `json:"segments"`
	Language            string             `json:"language"`
	Duration            float64            `json:"duration"`
	LanguageProbability float64            `json:"language_probability"`
	Error               string             `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewClient creates a worker client. timeout bounds a whole transcription request.
func NewClient(baseURL string, timeout, healthTimeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Hour
	}
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: timeout},
		healthTimeout: healthTimeout,
		logger:        logger,
	}
}

func (c *Client) Name() string { return c.baseURL }

// Healthy is true only for a 200 answer whose status is "healthy"
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("⚠️ ASR worker health check failed", zap.String("worker", c.baseURL), zap.Error(err))
		}
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return false
	}
	return h.Status == "healthy"
}

// Transcribe uploads the audio file as multipart form data
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (*entities.TranscriptionResult, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	filename := filepath.Base(audioPath)

	// Stream the upload; lecture recordings can be hours long
	go func() {
		pw.CloseWithError(writeForm(mw, f, filename, language))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if c.logger != nil {
		c.logger.Info("🎙️ Sending audio to ASR worker",
			zap.String("worker", c.baseURL),
			zap.String("file", filename),
		)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ASR worker request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ASR worker returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var tr TranscribeResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("invalid ASR worker response: %w", err)
	}
	if tr.Status == "error" {
		return nil, fmt.Errorf("ASR worker error: %s", tr.Error)
	}

	segments := tr.Segments
	if segments == nil {
		segments = []entities.Segment{}
	}
	return &entities.TranscriptionResult{
		Segments:            segments,
		Language:            tr.Language,
		Duration:            tr.Duration,
		LanguageProbability: tr.LanguageProbability,
	}, nil
}

func writeForm(mw *multipart.Writer, audio io.Reader, filename, language string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType(filename))
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return err
		}
	}
	return mw.Close()
}

func contentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
