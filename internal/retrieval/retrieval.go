// Package retrieval performs the dense-embedding similarity search that
// grounds proposal generation in past proposals.
package retrieval

import (
	"context"
	"fmt"

	"proposal-rag/internal/models"
	"proposal-rag/internal/vectorstore"

	"github.com/rs/zerolog/log"
)

// Embedder is the slice of the embedding client the retriever needs.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Retriever struct {
	store    *vectorstore.Store
	embedder Embedder
	topK     int
}

func NewRetriever(store *vectorstore.Store, embedder Embedder, topK int) *Retriever {
	return &Retriever{store: store, embedder: embedder, topK: topK}
}

// Retrieve returns the texts of the topK documents most similar to the
// query, most-similar first. It never returns an empty slice and never
// fails: no matches yields the single no-match sentinel, and any retrieval
// error is absorbed into a single descriptive entry so the pipeline can
// proceed without retrieved context.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) []string {
	if topK <= 0 {
		topK = r.topK
	}

	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("Error embedding retrieval query")
		return []string{fmt.Sprintf("%s%v", models.RetrievalErrorPrefix, err)}
	}

	results, err := r.store.Query(ctx, queryEmbedding, topK)
	if err != nil {
		log.Error().Err(err).Msg("Error querying vector store")
		return []string{fmt.Sprintf("%s%v", models.RetrievalErrorPrefix, err)}
	}
	if len(results) == 0 {
		log.Warn().Msg("No similar documents found")
		return []string{models.NoMatchSentinel}
	}

	docs := make([]string, len(results))
	for i, res := range results {
		docs[i] = res.Content
	}
	log.Debug().Int("count", len(docs)).Msg("Retrieved similar documents")
	return docs
}
