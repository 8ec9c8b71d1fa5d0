package chunking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
)

const (
	DefaultChunkSize = 400
	DefaultOverlap   = 50
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentencePattern = regexp.MustCompile(`[.!?]\s+`)
)

// Chunker splits transcripts into overlapping, word-bounded retrieval chunks
type Chunker struct {
	chunkSize int
	overlap   int
}

// New builds a chunker; chunkSize must be positive and overlap in [0, chunkSize)
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Default returns a chunker with the default window of 400 words and 50 words of overlap
func Default() *Chunker {
	return &Chunker{chunkSize: DefaultChunkSize, overlap: DefaultOverlap}
}

// ChunkSize returns the configured word budget per chunk
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap in words
func (c *Chunker) Overlap() int { return c.overlap }

// CountWords counts maximal runs of letters, digits and underscores
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

type windowSegment struct {
	index int
	text  string
	words int
	start float64
	end   float64
}

// ChunkSegments groups non-empty segments into chunks of at most chunkSize words.
// A single oversized segment still forms its own chunk. Each new chunk is seeded
// with the trailing segments of the previous one whose cumulative word count fits
// in the overlap budget.
func (c *Chunker) ChunkSegments(segments []entities.Segment) []entities.Chunk {
	if len(segments) == 0 {
		return nil
	}

	var (
		chunks  []entities.Chunk
		current []windowSegment
		words   int
	)

	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segWords := CountWords(text)

		if words+segWords > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, buildChunk(current))
			current = c.overlapWindow(current)
			words = 0
			for _, s := range current {
				words += s.words
			}
		}

		current = append(current, windowSegment{
			index: i,
			text:  text,
			words: segWords,
			start: seg.Start,
			end:   seg.End,
		})
		words += segWords
	}

	if len(current) > 0 {
		chunks = append(chunks, buildChunk(current))
	}
	return chunks
}

// overlapWindow walks backward collecting segments while the total stays within the overlap budget
func (c *Chunker) overlapWindow(current []windowSegment) []windowSegment {
	total := 0
	first := len(current)
	for i := len(current) - 1; i >= 0; i-- {
		if total+current[i].words > c.overlap {
			break
		}
		total += current[i].words
		first = i
	}
	window := make([]windowSegment, len(current)-first)
	copy(window, current[first:])
	return window
}

func buildChunk(window []windowSegment) entities.Chunk {
	texts := make([]string, len(window))
	indices := make([]int, len(window))
	for i, s := range window {
		texts[i] = s.text
		indices[i] = s.index
	}
	return entities.Chunk{
		Text:           strings.Join(texts, " "),
		StartTime:      window[0].start,
		EndTime:        window[len(window)-1].end,
		SegmentIndices: indices,
	}
}

// ChunkTextBySize splits plain text into pieces of at most limit characters.
// With preserveSentences the text is first cut after sentence-ending punctuation
// and sentences are packed greedily; a sentence longer than limit is hard sliced.
func (c *Chunker) ChunkTextBySize(text string, limit int, preserveSentences bool) []string {
	return ChunkTextBySize(text, limit, preserveSentences)
}

// ChunkTextBySize is the package level form of Chunker.ChunkTextBySize
func ChunkTextBySize(text string, limit int, preserveSentences bool) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}

	var sentences []string
	if preserveSentences {
		sentences = splitSentences(text)
	} else {
		sentences = []string{text}
	}

	var (
		pieces  []string
		current []rune
	)
	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			pieces = append(pieces, s)
		}
		current = current[:0]
	}

	for _, sentence := range sentences {
		runes := []rune(sentence)
		if len(runes) == 0 {
			continue
		}

		if len(runes) > limit {
			flush()
			for len(runes) > limit {
				pieces = append(pieces, string(runes[:limit]))
				runes = runes[limit:]
			}
			current = append(current, runes...)
			continue
		}

		sep := 0
		if len(current) > 0 {
			sep = 1
		}
		if len(current)+sep+len(runes) > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	flush()

	return pieces
}

// splitSentences cuts after every [.!?] that is followed by whitespace
func splitSentences(text string) []string {
	var (
		out  []string
		last int
	)
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation byte, keep it with the sentence
		out = append(out, text[last:loc[0]+1])
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}
