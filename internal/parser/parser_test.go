package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"proposal-rag/internal/models"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractTextFile(t *testing.T) {
	path := writeTemp(t, "rfp.txt", "We need a new inventory system.\nTimeline: six months.")

	e, err := Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != models.ExtractionOK {
		t.Errorf("status = %s, want ok", e.Status)
	}
	if !strings.Contains(e.Text, "inventory system") {
		t.Errorf("extracted text missing content: %q", e.Text)
	}
}

func TestExtractEmptyFileFails(t *testing.T) {
	path := writeTemp(t, "blank.txt", "  \n\t ")

	e, err := Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != models.ExtractionFailed {
		t.Errorf("status = %s, want failed", e.Status)
	}
	if e.Text != "" {
		t.Errorf("failed extraction should carry no text, got %q", e.Text)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "data.bin", "binary-ish")

	e, err := Extract(path)
	if err == nil {
		t.Fatal("unsupported format must return an error")
	}
	if e.Status != models.ExtractionFailed {
		t.Errorf("status = %s, want failed", e.Status)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e, err := Extract(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != models.ExtractionFailed {
		t.Errorf("status = %s, want failed", e.Status)
	}
}

func TestChunkContent(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		maxChars     int
		overlapChars int
		wantChunks   int
	}{
		{"empty", "", 100, 10, 0},
		{"zero max", "some text", 0, 0, 0},
		{"fits in one", "short text", 100, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkContent(tt.content, tt.maxChars, tt.overlapChars)
			if len(got) != tt.wantChunks {
				t.Errorf("chunkContent gave %d chunks, want %d", len(got), tt.wantChunks)
			}
		})
	}
}

func TestChunkContentRespectsMaxSize(t *testing.T) {
	content := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 100)
	maxChars := 200
	chunks := chunkContent(content, maxChars, 50)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > maxChars {
			t.Errorf("chunk %d is %d chars, exceeds max %d", i, len(c), maxChars)
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestChunkContentOverlapClamped(t *testing.T) {
	content := strings.Repeat("word ", 200)
	// overlap >= max must not loop forever or produce empty output
	chunks := chunkContent(content, 50, 60)
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite oversized overlap")
	}
}

func TestChunkTextCoversLongDocuments(t *testing.T) {
	// well past the embedder's input window; the tail must still land in
	// a chunk instead of being cut off with the document head
	body := strings.Repeat("Routine requirements narrative filler sentence for the solicitation. ", 90)
	body += "Final acceptance criteria close out the engagement."

	chunks, err := ChunkText(body, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	tailFound := false
	for i, c := range chunks {
		if len(c.Content) > 1000 {
			t.Errorf("chunk %d is %d chars, exceeds the chunk size", i, len(c.Content))
		}
		if strings.Contains(c.Content, "close out the engagement") {
			tailFound = true
		}
	}
	if !tailFound {
		t.Error("document tail missing from every chunk")
	}
}

func TestParseToChunksTextFile(t *testing.T) {
	body := strings.Repeat("A paragraph of proposal text with enough words to split. ", 50)
	path := writeTemp(t, "past.txt", body)

	chunks, err := ParseToChunks(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.ChunkID != i+1 {
			t.Errorf("chunk %d has ChunkID %d, want %d", i, c.ChunkID, i+1)
		}
		if c.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
	}
}
