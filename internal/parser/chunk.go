package parser

import (
	"bytes"
	"strings"

	"proposal-rag/internal/config"
	"proposal-rag/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 500  // bytes
	defaultPageNumber   = 1
)

// ParseToChunks extracts a file and splits the normalized text into
// overlapping chunks for embedding.
func ParseToChunks(filePath string, cfg *config.Config) ([]models.Chunk, error) {
	extraction, err := Extract(filePath)
	if err != nil {
		return nil, err
	}
	if extraction.Status == models.ExtractionFailed {
		return nil, nil
	}
	return ChunkText(extraction.Text, cfg)
}

// ChunkText normalizes already-extracted text to markdown and splits it into
// overlapping chunks sized for embedding. Every chunk fits the embedder's
// window, so long documents are indexed in full rather than by their head.
func ChunkText(text string, cfg *config.Config) ([]models.Chunk, error) {
	chunkSize, chunkOverlap := defaultChunkSize, defaultChunkOverlap
	if cfg != nil && cfg.RAG.ChunkSize > 0 && cfg.RAG.ChunkOverlap > 0 {
		chunkSize = cfg.RAG.ChunkSize
		chunkOverlap = cfg.RAG.ChunkOverlap
	}

	markdown, err := convertToMarkdown(text)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for i, content := range chunkContent(markdown, chunkSize, chunkOverlap) {
		chunks = append(chunks, models.Chunk{
			Content:    content,
			PageNumber: defaultPageNumber,
			ChunkID:    i + 1,
		})
	}
	return chunks, nil
}

func convertToMarkdown(text string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.Trim(buf.String(), " \t\n\r"), nil
}

// chunk content into chunks with maxChars and overlapChars
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}
	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// look for a clean break within the last 10% of the chunk
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		chunk := strings.TrimSpace(content[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		start += maxChars - overlapChars
		if start >= contentLen {
			break
		}
	}
	return chunks
}
