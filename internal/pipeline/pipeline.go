// Package pipeline sequences the proposal stages: extract, score, retrieve,
// summarize, expand and refine. It is the only component aware of the full
// order; stage errors halt the run with stage attribution, except scoring
// and retrieval which degrade instead of failing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"proposal-rag/internal/models"
	"proposal-rag/internal/parser"
	"proposal-rag/internal/prompt"
	"proposal-rag/internal/scoring"
	"proposal-rag/internal/session"

	"github.com/rs/zerolog/log"
)

// Retriever finds past proposals similar to a query. Implementations absorb
// their own failures into sentinel entries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) []string
}

// Completer is the abstract text-completion capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CorpusSource supplies past documents for the scorer's semantic factor.
type CorpusSource interface {
	Load(ctx context.Context) ([]string, error)
}

type Pipeline struct {
	retriever Retriever
	completer Completer
	sessions  *session.Store
	corpus    CorpusSource // may be nil when no historical store is configured
	topK      int
}

func New(retriever Retriever, completer Completer, sessions *session.Store, corpus CorpusSource, topK int) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		completer: completer,
		sessions:  sessions,
		corpus:    corpus,
		topK:      topK,
	}
}

type UploadResult struct {
	Filename        string
	Preview         string
	ComplexityScore int
}

type GenerateResult struct {
	Proposal  string
	Retrieved []string
}

// ProcessUpload extracts text from an uploaded RFP file and scores its
// complexity. Extraction failure halts before scoring.
func (p *Pipeline) ProcessUpload(ctx context.Context, filePath, filename string) (UploadResult, error) {
	extraction, err := parser.Extract(filePath)
	if err != nil {
		return UploadResult{}, newStageError(StageExtract, KindExtractionFailure, err)
	}
	if extraction.Status == models.ExtractionFailed {
		return UploadResult{}, newStageError(StageExtract, KindExtractionFailure,
			fmt.Errorf("unable to extract readable text from %s", filename))
	}

	score := scoring.Score(extraction.Text, p.loadCorpus(ctx))

	return UploadResult{
		Filename:        filename,
		Preview:         truncatePreview(extraction.Text, models.UploadPreviewLen),
		ComplexityScore: score,
	}, nil
}

// truncatePreview cuts text to at most maxBytes without splitting a UTF-8
// rune, so the preview stays valid when it lands in a JSON response.
func truncatePreview(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Generate runs retrieve, summarize and expand against the RFP text and
// stores the drafted proposal as the session's current draft. Callers may
// pass pre-retrieved documents; nil means retrieval runs here.
func (p *Pipeline) Generate(ctx context.Context, sessionID, rfpText string, retrieved []string) (GenerateResult, error) {
	rfpText = strings.TrimSpace(rfpText)
	if rfpText == "" {
		return GenerateResult{}, newStageError(StageSummarize, KindInvalidInput, errors.New("rfp text cannot be empty"))
	}

	score := scoring.Score(rfpText, p.loadCorpus(ctx))

	if retrieved == nil {
		retrieved = p.retriever.Retrieve(ctx, rfpText, p.topK)
	}

	summary, err := p.completer.Complete(ctx, prompt.Summarize(rfpText, retrieved, score))
	if err != nil {
		return GenerateResult{}, newStageError(StageSummarize, KindLLMInvocationFailure, err)
	}
	log.Debug().Int("score", score).Int("summary_chars", len(summary)).Msg("Summarization complete")

	draft, err := p.completer.Complete(ctx, prompt.Expand(summary, retrieved, score))
	if err != nil {
		return GenerateResult{}, newStageError(StageExpand, KindLLMInvocationFailure, err)
	}

	p.sessions.Set(sessionID, draft)
	return GenerateResult{Proposal: draft, Retrieved: retrieved}, nil
}

// Refine revises the session's current draft against user feedback and
// stores the result as the new current draft. Re-entrant: callers may refine
// as many times as they like. currentOverride, when non-empty, replaces the
// stored draft for this turn. The draft slot is untouched when the turn
// fails.
func (p *Pipeline) Refine(ctx context.Context, sessionID, currentOverride, feedback string) (string, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return "", newStageError(StageRefine, KindInvalidInput, errors.New("user feedback cannot be empty"))
	}

	var refined string
	err := p.sessions.Update(sessionID, func(current string) (string, error) {
		if currentOverride != "" {
			current = currentOverride
		}
		if current == "" {
			return "", newStageError(StageRefine, KindNoDraftAvailable, errors.New("no proposal draft to refine"))
		}
		out, err := p.completer.Complete(ctx, prompt.Refine(current, feedback))
		if err != nil {
			return "", newStageError(StageRefine, KindLLMInvocationFailure, err)
		}
		refined = out
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return refined, nil
}

// Latest returns the session's current draft, "" when none exists.
func (p *Pipeline) Latest(sessionID string) string {
	return p.sessions.Get(sessionID)
}

// StoreDraft overwrites the session's current draft.
func (p *Pipeline) StoreDraft(sessionID, text string) {
	p.sessions.Set(sessionID, text)
}

// loadCorpus fetches past documents for scoring. Failures degrade to an
// empty corpus; scoring proceeds without the semantic factor.
func (p *Pipeline) loadCorpus(ctx context.Context) []string {
	if p.corpus == nil {
		return nil
	}
	texts, err := p.corpus.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load past proposals, scoring without semantic factor")
		return nil
	}
	return texts
}
