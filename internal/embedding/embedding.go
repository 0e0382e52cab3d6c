package embedding

import (
	"context"
	"fmt"
	"strings"

	"proposal-rag/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxEmbedChars = 4000

// NewEmbedder creates an embedder backed by an OpenAI-compatible endpoint.
func NewEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder creates an embedder backed by a local ollama server.
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedText embeds a single text, truncating to the model's usable window.
func EmbedText(ctx context.Context, embedder *embeddings.EmbedderImpl, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	if len(text) > maxEmbedChars {
		text = text[:maxEmbedChars]
	}
	return embedder.EmbedQuery(ctx, text)
}

// ValidateDimension generates a probe embedding and checks it against the
// configured index dimensionality. A mismatch is a configuration error the
// caller should treat as fatal at startup.
func ValidateDimension(ctx context.Context, embedder *embeddings.EmbedderImpl, want int) error {
	probe, err := embedder.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("generating probe embedding: %w", err)
	}
	if len(probe) != want {
		return fmt.Errorf("embedding dimension mismatch: model produces %d, index expects %d", len(probe), want)
	}
	log.Debug().Int("dimension", want).Msg("Embedding dimension validated")
	return nil
}
