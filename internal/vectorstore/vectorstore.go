// Package vectorstore wraps the persistent chromem-go index that holds
// historical proposals for similarity search.
package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Entry is a document to upsert into the index with a precomputed embedding.
type Entry struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Store encapsulates the chromem-go database operations.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// New opens (or creates) the index at dbPath and its collection.
func New(dbPath, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &Store{db: db, collection: collection, name: collectionName}, nil
}

// Upsert adds or replaces a single document.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	doc := chromem.Document{
		ID:        entry.ID,
		Content:   entry.Content,
		Metadata:  entry.Metadata,
		Embedding: entry.Embedding,
	}
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add document: %v", err)
	}
	return nil
}

// UpsertBatch adds or replaces multiple documents at once.
func (s *Store) UpsertBatch(ctx context.Context, entries []Entry) error {
	docs := make([]chromem.Document, len(entries))
	for i, entry := range entries {
		docs[i] = chromem.Document{
			ID:        entry.ID,
			Content:   entry.Content,
			Metadata:  entry.Metadata,
			Embedding: entry.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Query returns the topK most similar documents to the query embedding,
// most-similar first. topK is clamped to the collection size; an empty
// collection returns no results and no error.
func (s *Store) Query(ctx context.Context, queryEmbedding []float32, topK int) ([]chromem.Result, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}
	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	return results, nil
}

// Count reports how many documents the collection holds.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Stats reports per-collection document counts.
func (s *Store) Stats() map[string]int {
	return map[string]int{s.name: s.collection.Count()}
}

// Reset drops every document from the collection and recreates it.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	collection, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %v", err)
	}
	s.collection = collection
	log.Info().Str("collection", s.name).Msg("Vector collection reset")
	return nil
}
