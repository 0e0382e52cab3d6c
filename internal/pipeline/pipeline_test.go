package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-rag/internal/models"
	"proposal-rag/internal/session"
)

type fakeRetriever struct {
	docs []string
}

func (f fakeRetriever) Retrieve(ctx context.Context, query string, topK int) []string {
	return f.docs
}

type fakeCompleter struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

type fakeCorpus struct {
	texts []string
	err   error
}

func (f fakeCorpus) Load(ctx context.Context) ([]string, error) {
	return f.texts, f.err
}

func newTestPipeline(completer Completer, docs []string) (*Pipeline, *session.Store) {
	sessions := session.NewStore(time.Minute)
	p := New(fakeRetriever{docs: docs}, completer, sessions, fakeCorpus{}, 2)
	return p, sessions
}

func TestGenerateStoresDraft(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"the summary", "the full proposal"}}
	p, sessions := newTestPipeline(completer, []string{"past doc"})

	result, err := p.Generate(context.Background(), "alice", "build a data platform", nil)
	require.NoError(t, err)
	assert.Equal(t, "the full proposal", result.Proposal)
	assert.Equal(t, []string{"past doc"}, result.Retrieved)
	assert.Equal(t, "the full proposal", sessions.Get("alice"))

	// summarize then expand, in order
	require.Len(t, completer.prompts, 2)
	assert.Contains(t, completer.prompts[0], "build a data platform")
	assert.Contains(t, completer.prompts[1], "the summary")
}

func TestGenerateUsesCallerSuppliedDocs(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"s", "p"}}
	p, _ := newTestPipeline(completer, []string{"should not appear"})

	supplied := []string{"caller doc"}
	result, err := p.Generate(context.Background(), "alice", "some rfp", supplied)
	require.NoError(t, err)
	assert.Equal(t, supplied, result.Retrieved)
	assert.Contains(t, completer.prompts[0], "caller doc")
	assert.NotContains(t, completer.prompts[0], "should not appear")
}

func TestGenerateEmptyRFPText(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"s", "p"}}
	p, _ := newTestPipeline(completer, nil)

	_, err := p.Generate(context.Background(), "alice", "   ", nil)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindInvalidInput, stageErr.Kind)
	assert.Empty(t, completer.prompts, "no LLM call on invalid input")
}

func TestGenerateLLMFailureHaltsAndKeepsSessionClean(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("quota exceeded")}
	p, sessions := newTestPipeline(completer, []string{"doc"})

	_, err := p.Generate(context.Background(), "alice", "an rfp", nil)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageSummarize, stageErr.Stage)
	assert.Equal(t, KindLLMInvocationFailure, stageErr.Kind)
	assert.Empty(t, sessions.Get("alice"), "no draft on failed generation")
}

func TestRefineWithNoDraft(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"refined"}}
	p, sessions := newTestPipeline(completer, nil)

	_, err := p.Refine(context.Background(), "alice", "", "please shorten it")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageRefine, stageErr.Stage)
	assert.Equal(t, KindNoDraftAvailable, stageErr.Kind)
	assert.Empty(t, sessions.Get("alice"), "draft slot must stay empty")
}

func TestRefineUsesStoredDraft(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"refined draft"}}
	p, sessions := newTestPipeline(completer, nil)
	sessions.Set("alice", "stored draft")

	refined, err := p.Refine(context.Background(), "alice", "", "tighten the intro")
	require.NoError(t, err)
	assert.Equal(t, "refined draft", refined)
	assert.Equal(t, "refined draft", sessions.Get("alice"))
	assert.Contains(t, completer.prompts[0], "stored draft")
	assert.Contains(t, completer.prompts[0], "tighten the intro")
}

func TestRefineOverrideReplacesStoredDraft(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"refined"}}
	p, sessions := newTestPipeline(completer, nil)
	sessions.Set("alice", "stored draft")

	_, err := p.Refine(context.Background(), "alice", "override draft", "feedback")
	require.NoError(t, err)
	assert.Contains(t, completer.prompts[0], "override draft")
	assert.NotContains(t, completer.prompts[0], "stored draft")
}

func TestRefineEmptyFeedback(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"refined"}}
	p, sessions := newTestPipeline(completer, nil)
	sessions.Set("alice", "a draft")

	_, err := p.Refine(context.Background(), "alice", "", "  ")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindInvalidInput, stageErr.Kind)
	assert.Equal(t, "a draft", sessions.Get("alice"))
}

func TestRefineLLMFailureLeavesDraftUntouched(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("timeout")}
	p, sessions := newTestPipeline(completer, nil)
	sessions.Set("alice", "good draft")

	_, err := p.Refine(context.Background(), "alice", "", "feedback")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindLLMInvocationFailure, stageErr.Kind)
	assert.Equal(t, "good draft", sessions.Get("alice"))
}

func TestRefineIsReentrant(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"v1", "v2", "v3"}}
	p, sessions := newTestPipeline(completer, nil)
	sessions.Set("alice", "v0")

	for i, want := range []string{"v1", "v2", "v3"} {
		got, err := p.Refine(context.Background(), "alice", "", "round")
		require.NoError(t, err, "round %d", i)
		assert.Equal(t, want, got)
		assert.Equal(t, want, sessions.Get("alice"))
	}
}

func TestProcessUpload(t *testing.T) {
	dir := t.TempDir()
	body := strings.Repeat("objective timeline budget words here and more filler text ", 40)
	path := filepath.Join(dir, "rfp.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, _ := newTestPipeline(&fakeCompleter{responses: []string{"x"}}, nil)
	result, err := p.ProcessUpload(context.Background(), path, "rfp.txt")
	require.NoError(t, err)
	assert.Equal(t, "rfp.txt", result.Filename)
	assert.LessOrEqual(t, len(result.Preview), models.UploadPreviewLen)
	assert.GreaterOrEqual(t, result.ComplexityScore, 1)
	assert.LessOrEqual(t, result.ComplexityScore, 5)
}

func TestProcessUploadPreviewKeepsRunesIntact(t *testing.T) {
	dir := t.TempDir()
	// 3-byte runes, so the preview byte limit falls mid-rune
	body := strings.Repeat("€", 400)
	path := filepath.Join(dir, "unicode.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, _ := newTestPipeline(&fakeCompleter{responses: []string{"x"}}, nil)
	result, err := p.ProcessUpload(context.Background(), path, "unicode.txt")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Preview), models.UploadPreviewLen)
	assert.True(t, utf8.ValidString(result.Preview), "preview must not end in a split rune")
}

func TestProcessUploadUnreadableFileHaltsBeforeScoring(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))

	p, _ := newTestPipeline(&fakeCompleter{responses: []string{"x"}}, nil)
	_, err := p.ProcessUpload(context.Background(), path, "empty.txt")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.Equal(t, KindExtractionFailure, stageErr.Kind)
}

func TestProcessUploadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))

	p, _ := newTestPipeline(&fakeCompleter{responses: []string{"x"}}, nil)
	_, err := p.ProcessUpload(context.Background(), path, "image.png")
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, KindExtractionFailure, stageErr.Kind)
}
