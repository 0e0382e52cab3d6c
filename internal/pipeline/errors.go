package pipeline

import "fmt"

// Stage names identify which step of the pipeline an error belongs to.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageScore     Stage = "score"
	StageRetrieve  Stage = "retrieve"
	StageSummarize Stage = "summarize"
	StageExpand    Stage = "expand"
	StageRefine    Stage = "refine"
)

// Kind classifies a stage failure.
type Kind string

const (
	KindExtractionFailure          Kind = "extraction_failure"
	KindRetrievalFailure           Kind = "retrieval_failure"
	KindScoringFailure             Kind = "scoring_failure"
	KindLLMInvocationFailure       Kind = "llm_invocation_failure"
	KindNoDraftAvailable           Kind = "no_draft_available"
	KindEmbeddingDimensionMismatch Kind = "embedding_dimension_mismatch"
	KindInvalidInput               Kind = "invalid_input"
)

// StageError carries stage attribution for a pipeline failure. Stage results
// are never both successful and error-bearing: a failed stage returns a
// StageError, not a payload with an error-looking prefix.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s stage failed: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage Stage, kind Kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
