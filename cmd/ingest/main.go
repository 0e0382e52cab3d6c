// Command ingest bulk-loads historical proposal documents into the vector
// index and the Postgres corpus table so retrieval and scoring have past
// material to draw on.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"proposal-rag/internal/config"
	"proposal-rag/internal/corpus"
	"proposal-rag/internal/embedding"
	"proposal-rag/internal/helper"
	"proposal-rag/internal/models"
	"proposal-rag/internal/parser"
	"proposal-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

var supportedExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".txt": true, ".md": true,
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	docsDir := flag.String("dir", "./docs", "Directory of past proposals to ingest")
	reset := flag.Bool("reset", false, "Clear the index and corpus table before ingesting")
	dryRun := flag.Bool("dry-run", false, "Extract and print only, do not embed or store")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	if !*dryRun {
		if err := embedding.ValidateDimension(ctx, embedder, cfg.RAG.Dimension); err != nil {
			log.Fatal().Err(err).Msg("Embedding dimension validation failed")
		}
	}

	store, err := vectorstore.New(cfg.RAG.DBPath, cfg.RAG.Collection, cfg.RAG.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}

	var db *bun.DB
	if cfg.Database.DSN != "" {
		sqldb, err := corpus.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		db = corpus.NewDB(sqldb, cfg.Database.Debug)
		defer db.Close()
	}

	if *reset {
		if err := store.Reset(); err != nil {
			log.Fatal().Err(err).Msg("Error resetting vector store")
		}
		if db != nil {
			if err := corpus.DropProposals(ctx, db); err != nil {
				log.Fatal().Err(err).Msg("Error clearing corpus table")
			}
		}
	}
	if db != nil {
		if err := corpus.InitDB(ctx, db, cfg.RAG.Dimension); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
	}

	files, err := os.ReadDir(*docsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *docsDir).Msg("Error reading docs directory")
	}

	ingested := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if !supportedExtensions[ext] {
			log.Warn().Str("file", f.Name()).Msg("Unsupported file type, skipping")
			continue
		}
		if err := ingestFile(ctx, cfg, filepath.Join(*docsDir, f.Name()), f.Name(), embedder, store, db, *dryRun); err != nil {
			log.Error().Err(err).Str("file", f.Name()).Msg("Error ingesting file")
			continue
		}
		ingested++
	}

	log.Info().Int("ingested", ingested).Interface("stats", store.Stats()).Msg("Ingest complete")
}

// ingestFile extracts a document, splits it into chunks and embeds each chunk
// into the vector index, so long proposals are searchable in full. The corpus
// table keeps the whole text for the scorer.
func ingestFile(ctx context.Context, cfg *config.Config, path, filename string, embedder *embeddings.EmbedderImpl, store *vectorstore.Store, db *bun.DB, dryRun bool) error {
	extraction, err := parser.Extract(path)
	if err != nil {
		return err
	}
	if extraction.Status == models.ExtractionFailed {
		log.Warn().Str("file", filename).Msg("No readable text, skipping")
		return nil
	}

	chunks, err := parser.ChunkText(extraction.Text, cfg)
	if err != nil {
		return err
	}

	if dryRun {
		helper.PrettyPrint(map[string]string{
			"file":   filename,
			"status": string(extraction.Status),
			"chunks": strconv.Itoa(len(chunks)),
			"text":   extraction.Text,
		})
		return nil
	}

	entries := make([]vectorstore.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := embedding.EmbedText(ctx, embedder, chunk.Content)
		if err != nil {
			return err
		}
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		entries = append(entries, vectorstore.Entry{
			ID:      id,
			Content: chunk.Content,
			Metadata: map[string]string{
				"source_filename": filename,
				"origin":          string(models.OriginHistorical),
				"chunk_id":        strconv.Itoa(chunk.ChunkID),
			},
			Embedding: vector,
		})
	}
	if err := store.UpsertBatch(ctx, entries); err != nil {
		return err
	}

	if db != nil {
		var headVector []float32
		if len(entries) > 0 {
			headVector = entries[0].Embedding
		}
		if err := corpus.StoreProposal(ctx, db, filename, extraction.Text, headVector); err != nil {
			return err
		}
	}

	log.Info().Str("file", filename).Int("chunks", len(entries)).Msg("Ingested")
	return nil
}

func newEmbedder(cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	if cfg.EmbedLLM.Key == "" {
		return embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	}
	return embedding.NewEmbedder(&cfg.EmbedLLM)
}
