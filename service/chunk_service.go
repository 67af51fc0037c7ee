package service

import (
	"strings"
	"unicode"

	"github.com/caselens/casefile-be/types"
)

// ChunkService splits extracted text into overlapping fragments bounded
// by a token budget. Output is a pure function of (text, maxTokens,
// overlapTokens) for a fixed token counter.
type ChunkService struct {
	maxTokens     int
	overlapTokens int
	counter       TokenCounter
}

func NewChunkService(maxTokens, overlapTokens int, counter TokenCounter) *ChunkService {
	return &ChunkService{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		counter:       counter,
	}
}

// Chunk accumulates sentence units greedily under the token budget. When
// a unit would overflow a non-empty buffer, the buffer is flushed and the
// next one is seeded with a trailing window of units whose combined token
// count stays within the overlap budget. A single unit larger than the
// budget is still emitted whole; sentences are never cut mid-way.
func (s *ChunkService) Chunk(text string) []types.Chunk {
	var chunks []types.Chunk
	var current []string
	currentTokens := 0

	for _, unit := range splitSentenceUnits(text) {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		unitTokens := s.counter.Count(unit)

		if currentTokens+unitTokens > s.maxTokens && len(current) > 0 {
			chunks = append(chunks, s.flush(current))

			overlap := 0
			var seed []string
			for i := len(current) - 1; i >= 0; i-- {
				t := s.counter.Count(current[i])
				if overlap+t > s.overlapTokens {
					break
				}
				seed = append([]string{current[i]}, seed...)
				overlap += t
			}
			current = seed
			currentTokens = overlap
		}

		current = append(current, unit)
		currentTokens += unitTokens
	}

	if len(current) > 0 {
		chunks = append(chunks, s.flush(current))
	}
	return chunks
}

func (s *ChunkService) flush(units []string) types.Chunk {
	content := strings.Join(units, " ")
	return types.Chunk{
		Content:    content,
		TokenCount: s.counter.Count(content),
	}
}

// splitSentenceUnits splits on whitespace runs that follow sentence
// terminal punctuation or a newline, keeping the terminator with its
// sentence.
func splitSentenceUnits(text string) []string {
	var units []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		if unicode.IsSpace(runes[i]) && i > start && isSentenceTerminal(runes[i-1]) {
			units = append(units, string(runes[start:i]))
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		units = append(units, string(runes[start:]))
	}
	return units
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}
