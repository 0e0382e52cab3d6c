package models

// ExtractionStatus reports how much text extraction recovered from a file.
type ExtractionStatus string

const (
	ExtractionOK      ExtractionStatus = "ok"
	ExtractionPartial ExtractionStatus = "partial"
	ExtractionFailed  ExtractionStatus = "failed"
)

// Extraction is the result of running a file through the extraction chain.
type Extraction struct {
	Text   string
	Status ExtractionStatus
}

// Origin tags where a document came from.
type Origin string

const (
	OriginUpload     Origin = "upload"
	OriginHistorical Origin = "historical"
)

// Chunk represents a parsed chunk with metadata.
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}
