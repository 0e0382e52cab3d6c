// Package prompt builds the stage prompts submitted to the LLM. The amount
// of detail each prompt asks for follows the RFP's complexity score.
package prompt

import (
	"fmt"
	"strings"

	"proposal-rag/internal/models"
)

const detailThresholdHigh = 4

var summarizeTemplate = `You are an expert at summarizing RFP documents. Provide a %s summary
focusing on the following new RFP with an emphasis on its content. Use the retrieved documents
as additional context to identify common themes or successful practices and integrate them
where relevant. Do not introduce content that is absent from the RFP itself.

New RFP:
%s

Context (Past Proposals):
%s
`

var expandTemplate = `You are a professional business consultant responding to a client's RFP.
Your task is to generate a %s proposal that directly addresses the client's needs.

Client's RFP to Respond To:
%s

Past Successful Proposals (USE THESE TO SHAPE THE RESPONSE):
%s

Proposal Format:
%s

Important:
- Reference the numbered past proposals in relevant sections so reused content is attributable.
- Ensure pricing, solutions, and technical details align with industry best practices.
`

var refineTemplate = `Below is the current draft of a business proposal, followed by feedback
from the author. Revise the draft so that it addresses the feedback. Preserve all sections and
content that the feedback does not ask you to change; do not drop any section.

Current Proposal:
%s

Feedback:
%s
`

// SummarizeDetail maps a complexity score to the summary verbosity level.
func SummarizeDetail(score int) string {
	switch {
	case score >= detailThresholdHigh:
		return "detailed"
	case score == 3:
		return "balanced"
	default:
		return "concise"
	}
}

// ExpandDetail maps a complexity score to the proposal verbosity level.
func ExpandDetail(score int) string {
	switch {
	case score >= detailThresholdHigh:
		return "highly detailed and technical"
	case score == 3:
		return "well-balanced with key details"
	default:
		return "concise and to the point"
	}
}

// Summarize builds the prompt condensing the RFP, grounded by retrieved
// context when available.
func Summarize(rfpText string, retrieved []string, score int) string {
	return fmt.Sprintf(summarizeTemplate, SummarizeDetail(score), rfpText, referenceBlocks(retrieved))
}

// Expand builds the prompt drafting the full proposal from a summary (or the
// raw RFP text), with the fixed section skeleton and each retrieved document
// surfaced as a numbered reference block.
func Expand(summary string, retrieved []string, score int) string {
	var skeleton strings.Builder
	for _, section := range models.ProposalSections {
		skeleton.WriteString("- **" + section + "**\n")
	}
	return fmt.Sprintf(expandTemplate, ExpandDetail(score), summary, referenceBlocks(retrieved), skeleton.String())
}

// Refine builds the prompt revising the current draft against user feedback.
func Refine(draft, feedback string) string {
	return fmt.Sprintf(refineTemplate, draft, feedback)
}

// referenceBlocks labels each retrieved document with an ordinal so the LLM
// can attribute reused content.
func referenceBlocks(retrieved []string) string {
	if len(retrieved) == 0 {
		return models.NoMatchSentinel
	}
	var b strings.Builder
	for i, doc := range retrieved {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("**Reference Proposal %d**:\n%s", i+1, doc))
	}
	return b.String()
}
