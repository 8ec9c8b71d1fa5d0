package whisper

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/transcription"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

var (
	segmentLine  = regexp.MustCompile(`^\[(\d+):(\d{2}):(\d{2}(?:\.\d+)?)\s*-->\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)\]\s*(.*)$`)
	languageLine = regexp.MustCompile(`auto-detected language:\s*([a-z]{2,3})\s*\(p\s*=\s*([0-9.]+)\)`)
)

// CLIEngine runs a whisper.cpp binary and streams its segments
type CLIEngine struct {
	bin     string
	model   string
	threads int
	logger  *zap.Logger
}

// NewCLIEngine checks the model file exists and resolves the binary on PATH
func NewCLIEngine(cfg *config.ASRConfig, logger *zap.Logger) (*CLIEngine, error) {
	bin, err := exec.LookPath(cfg.WhisperBinary)
	if err != nil {
		return nil, fmt.Errorf("whisper binary %q not found: %w", cfg.WhisperBinary, err)
	}
	if _, err := os.Stat(cfg.WhisperModel); err != nil {
		return nil, fmt.Errorf("whisper model %q not available: %w", cfg.WhisperModel, err)
	}
	threads := cfg.WhisperThreads
	if threads <= 0 {
		threads = 4
	}
	if logger != nil {
		logger.Info("✅ Local whisper engine loaded",
			zap.String("bin", bin),
			zap.String("model", cfg.WhisperModel),
		)
	}
	return &CLIEngine{bin: bin, model: cfg.WhisperModel, threads: threads, logger: logger}, nil
}

var _ transcription.Engine = (*CLIEngine)(nil)

func (e *CLIEngine) Transcribe(ctx context.Context, audioPath, language string, emit func(entities.Segment)) (transcription.EngineInfo, error) {
	lang := language
	if lang == "" {
		lang = "auto"
	}
	cmd := exec.CommandContext(ctx, e.bin,
		"-m", e.model,
		"-f", audioPath,
		"-t", strconv.Itoa(e.threads),
		"-l", lang,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return transcription.EngineInfo{}, err
	}
	if err := cmd.Start(); err != nil {
		return transcription.EngineInfo{}, fmt.Errorf("failed to start whisper: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if seg, ok := ParseSegmentLine(scanner.Text()); ok {
			emit(seg)
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return transcription.EngineInfo{}, ctx.Err()
	}
	if waitErr != nil {
		return transcription.EngineInfo{}, fmt.Errorf("whisper failed: %w: %s", waitErr, lastLine(stderr.String()))
	}

	info := transcription.EngineInfo{Language: language}
	if detected, prob, ok := ParseLanguage(stderr.String()); ok {
		info.Language = detected
		info.LanguageProbability = prob
	}
	return info, nil
}

// ParseSegmentLine parses "[hh:mm:ss.mmm --> hh:mm:ss.mmm] text"
func ParseSegmentLine(line string) (entities.Segment, bool) {
	m := segmentLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return entities.Segment{}, false
	}
	return entities.Segment{
		Start: clock(m[1], m[2], m[3]),
		End:   clock(m[4], m[5], m[6]),
		Text:  strings.TrimSpace(m[7]),
	}, true
}

// ParseLanguage extracts the auto-detected language and its probability from whisper's log
func ParseLanguage(log string) (string, float64, bool) {
	m := languageLine.FindStringSubmatch(log)
	if m == nil {
		return "", 0, false
	}
	p, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return m[1], 0, true
	}
	return m[1], p, true
}

func clock(h, m, s string) float64 {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.ParseFloat(s, 64)
	return float64(hours*3600+minutes*60) + seconds
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
