// Package llm is the synchronous text-completion client the generation
// stages call. Prompt in, generated text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"proposal-rag/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrTimeout marks a completion that exceeded the configured deadline.
var ErrTimeout = errors.New("llm call timed out")

type Client struct {
	llm     *openai.LLM
	timeout time.Duration
}

func NewClient(llmConfig *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing inference LLM: %w", err)
	}
	return &Client{
		llm:     llm,
		timeout: time.Duration(llmConfig.TimeoutSeconds) * time.Second,
	}, nil
}

// Complete submits a prompt and returns the generated text. The call runs
// under the configured timeout; a deadline hit surfaces as ErrTimeout.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	content := strings.TrimSpace(res.Choices[0].Content)
	log.Debug().Int("chars", len(content)).Msg("LLM completion received")
	return content, nil
}
