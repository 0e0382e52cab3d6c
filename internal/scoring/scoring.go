// Package scoring computes the complexity score that steers how much detail
// the generation stages ask the LLM for. The semantic factor is a coarse
// term-frequency cosine against past documents; it is deliberately separate
// from the dense-embedding retrieval in internal/retrieval.
package scoring

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	MinScore = 1
	MaxScore = 5

	wordsPerLengthPoint = 500

	weightLength      = 0.4
	weightObjectives  = 0.2
	weightSpecificity = 0.2
	weightSemantic    = 0.2
)

var specificityKeywords = []string{"timeline", "budget", "technical", "deliverables", "integration"}

// Factors holds the pre-weighting sub-scores and the derived result.
type Factors struct {
	Length      int
	Objectives  int
	Specificity int
	Semantic    int
	Weighted    float64
	Final       int
}

// Score computes a complexity score in [1,5] for the given text, optionally
// comparing against a corpus of past documents. It never fails: degenerate
// input or any internal error logs a warning and yields the minimum score.
func Score(text string, corpus []string) int {
	return Breakdown(text, corpus).Final
}

// Breakdown is Score with the per-factor sub-scores exposed.
func Breakdown(text string, corpus []string) (f Factors) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Error computing complexity, defaulting to minimum")
			f = Factors{Final: MinScore}
		}
	}()

	if strings.TrimSpace(text) == "" {
		log.Warn().Msg("Empty text, defaulting to minimum complexity")
		return Factors{Final: MinScore}
	}

	lower := strings.ToLower(text)

	wordCount := len(strings.Fields(text))
	f.Length = int(math.Ceil(math.Min(float64(wordCount)/wordsPerLengthPoint, MaxScore)))

	f.Objectives = min(strings.Count(lower, "objective"), MaxScore)

	for _, kw := range specificityKeywords {
		if strings.Contains(lower, kw) {
			f.Specificity++
		}
	}
	f.Specificity = min(f.Specificity, MaxScore)

	f.Semantic = semanticScore(text, corpus)

	f.Weighted = weightLength*float64(f.Length) +
		weightObjectives*float64(f.Objectives) +
		weightSpecificity*float64(f.Specificity) +
		weightSemantic*float64(f.Semantic)

	f.Final = max(MinScore, min(int(math.Ceil(f.Weighted)), MaxScore))

	log.Debug().
		Int("length", f.Length).
		Int("objectives", f.Objectives).
		Int("specificity", f.Specificity).
		Int("semantic", f.Semantic).
		Float64("weighted", f.Weighted).
		Int("final", f.Final).
		Msg("Computed complexity score")
	return f
}

// semanticScore is the maximum term-frequency cosine similarity between the
// text and any corpus entry, scaled to [0,5]. Empty corpus scores 0.
func semanticScore(text string, corpus []string) int {
	if len(corpus) == 0 {
		return 0
	}

	vocab := map[string]int{}
	docs := append([]string{text}, corpus...)
	tokenized := make([][]string, len(docs))
	for i, doc := range docs {
		tokenized[i] = tokenize(doc)
		for _, term := range tokenized[i] {
			if _, ok := vocab[term]; !ok {
				vocab[term] = len(vocab)
			}
		}
	}
	if len(vocab) == 0 {
		log.Warn().Msg("Empty vocabulary, semantic score is 0")
		return 0
	}

	vectors := make([][]float64, len(docs))
	for i, terms := range tokenized {
		vec := make([]float64, len(vocab))
		for _, term := range terms {
			vec[vocab[term]]++
		}
		vectors[i] = vec
	}

	maxSim := 0.0
	for i := 1; i < len(vectors); i++ {
		if sim := cosineSimilarity(vectors[0], vectors[i]); sim > maxSim {
			maxSim = sim
		}
	}
	return int(math.Round(math.Min(maxSim*MaxScore, MaxScore)))
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
