package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/docsync/internal/core"
)

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	dim       int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dim int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", core.ErrConfiguration)
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, dim: dim}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// EmbedTexts embeds a single text with EmbedContent and larger inputs with
// one BatchEmbedContents request. Every vector is checked against the
// configured dimension.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.modelName)
	em.TaskType = genai.TaskTypeRetrievalDocument

	var out [][]float32
	if len(texts) == 1 {
		resp, err := em.EmbedContent(ctx, genai.Text(texts[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: gemini embed: %w", core.ErrEmbeddingProvider, err)
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("%w: gemini embed: empty response", core.ErrEmbeddingProvider)
		}
		out = [][]float32{resp.Embedding.Values}
	} else {
		batch := em.NewBatch()
		for _, t := range texts {
			batch.AddContent(genai.Text(t))
		}
		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: gemini batch embed: %w", core.ErrEmbeddingProvider, err)
		}
		out = make([][]float32, 0, len(resp.Embeddings))
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}

	if len(out) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", core.ErrEmbeddingProvider, len(out), len(texts))
	}
	if err := checkDims(out, g.dim); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a search query with the retrieval-query task type.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.modelName)
	em.TaskType = genai.TaskTypeRetrievalQuery
	resp, err := em.EmbedContent(ctx, genai.Text(query))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed query: %w", core.ErrEmbeddingProvider, err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("%w: gemini embed query: empty response", core.ErrEmbeddingProvider)
	}
	if err := checkDims([][]float32{resp.Embedding.Values}, g.dim); err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

func checkDims(vecs [][]float32, dim int) error {
	if dim <= 0 {
		return nil
	}
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", core.ErrEmbeddingProvider, i, len(v), dim)
		}
	}
	return nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
