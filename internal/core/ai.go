package core

import "context"

// EmbeddingProvider turns texts into fixed-dimension vectors, one per input.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
