package models

const (
	// NoMatchSentinel is returned as the single retrieval entry when the
	// index holds no similar documents. Callers distinguish it from an
	// empty slice, which means retrieval was never attempted.
	NoMatchSentinel = "No similar documents found."

	// RetrievalErrorPrefix leads the single entry returned when a
	// retrieval attempt fails outright.
	RetrievalErrorPrefix = "Error retrieving documents: "

	// UploadPreviewLen is how many characters of extracted text the
	// upload response echoes back.
	UploadPreviewLen = 500
)

// ProposalSections is the fixed section skeleton every generated proposal
// must follow, in order.
var ProposalSections = []string{
	"Cover Letter",
	"Understanding of Client Needs",
	"Proposed Solution",
	"Project Plan & Timeline",
	"Pricing & Payment Terms",
	"Technical Approach",
	"Company Experience",
	"Case Studies & Testimonials",
	"Conclusion & Call to Action",
}
