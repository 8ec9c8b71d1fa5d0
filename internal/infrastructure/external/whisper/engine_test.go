package whisper

import (
	"math"
	"testing"

	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

func TestParseSegmentLine(t *testing.T) {
	tests := []struct {
		line  string
		ok    bool
		start float64
		end   float64
		text  string
	}{
		{"[00:00:00.000 --> 00:00:04.320]   Добрый день, коллеги.", true, 0, 4.32, "Добрый день, коллеги."},
		{"[01:02:03.500 --> 01:02:07.250] second", true, 3723.5, 3727.25, "second"},
		{"[00:00:10.000 --> 00:00:11.000]", true, 10, 11, ""},
		{"whisper_init_from_file: loading model", false, 0, 0, ""},
		{"", false, 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			seg, ok := ParseSegmentLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if math.Abs(seg.Start-tt.start) > 1e-9 || math.Abs(seg.End-tt.end) > 1e-9 || seg.Text != tt.text {
				t.Fatalf("got %+v", seg)
			}
		})
	}
}

func TestParseLanguage(t *testing.T) {
	log := "whisper_full_with_state: auto-detected language: kk (p = 0.873421)\nsystem_info: n_threads = 4"
	lang, p, ok := ParseLanguage(log)
	if !ok || lang != "kk" || math.Abs(p-0.873421) > 1e-9 {
		t.Fatalf("got %q %v %v", lang, p, ok)
	}
	if _, _, ok := ParseLanguage("no detection here"); ok {
		t.Fatalf("expected no match")
	}
}

func TestNewCLIEngineMissingBinary(t *testing.T) {
	cfg := &config.ASRConfig{WhisperBinary: "definitely-not-a-whisper-binary", WhisperModel: "x.bin"}
	if _, err := NewCLIEngine(cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}
