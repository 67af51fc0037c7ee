package service

import (
	"context"
	"fmt"

	"github.com/caselens/casefile-be/types"
)

// Generator produces answers from a prepared prompt. Implementations
// normalize whatever content shape the upstream service returns (plain
// string, typed parts, or nothing) into plain text before returning.
type Generator interface {
	Generate(ctx context.Context, messages []types.PromptMessage) (*types.Generation, error)
	// GenerateStream delivers partial text through onDelta in arrival
	// order and returns the finalized generation, including the token
	// usage that arrives on the trailing upstream chunk.
	GenerateStream(ctx context.Context, messages []types.PromptMessage, onDelta types.StreamHandler) (*types.Generation, error)
	// GenerateJSON forces a JSON object response body.
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// Embedder converts texts into fixed-dimension vectors, one per input,
// order-preserving.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Transcriber turns an audio file into a transcript in the configured
// language.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, data []byte, language string) (string, error)
}

// ensureVectorDims verifies every returned vector has the configured
// width. A mismatched vector would index fine and only surface as search
// errors much later, so the whole embedding call fails instead.
func ensureVectorDims(vectors [][]float32, want int) error {
	if want <= 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(v), want)
		}
	}
	return nil
}
