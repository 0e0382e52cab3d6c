package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"proposal-rag/internal/config"
	"proposal-rag/internal/corpus"
	"proposal-rag/internal/embedding"
	"proposal-rag/internal/helper"
	"proposal-rag/internal/llm"
	"proposal-rag/internal/pipeline"
	"proposal-rag/internal/retrieval"
	"proposal-rag/internal/server"
	"proposal-rag/internal/session"
	"proposal-rag/internal/vectorstore"
)

const (
	defaultConfigPath = "./configs/config.yaml"
	sessionTTL        = 24 * time.Hour
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	if err := helper.CreateFolder(cfg.Server.UploadDir); err != nil {
		log.Fatal().Err(err).Msg("Error creating upload folder")
	}

	ctx := context.Background()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	// Dimension mismatch is a configuration error; abort before serving.
	if err := embedding.ValidateDimension(ctx, embedder, cfg.RAG.Dimension); err != nil {
		log.Fatal().Err(err).Msg("Embedding dimension validation failed")
	}

	store, err := vectorstore.New(cfg.RAG.DBPath, cfg.RAG.Collection, cfg.RAG.InMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	log.Info().Interface("stats", store.Stats()).Msg("Vector store ready")

	var corpusSource pipeline.CorpusSource
	if cfg.Database.DSN != "" {
		sqldb, err := corpus.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		db := corpus.NewDB(sqldb, cfg.Database.Debug)
		defer db.Close()
		if err := corpus.InitDB(ctx, db, cfg.RAG.Dimension); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		corpusSource = corpus.NewSource(db, cfg.RAG.CorpusLimit)
	} else {
		log.Warn().Msg("No database configured, scoring runs without past proposals")
	}

	completer, err := llm.NewClient(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	retriever := retrieval.NewRetriever(store, embedder, cfg.RAG.TopK)
	sessions := session.NewStore(sessionTTL)
	pipe := pipeline.New(retriever, completer, sessions, corpusSource, cfg.RAG.TopK)

	handlers := server.NewHandlers(pipe, retriever, store, cfg.Server.UploadDir, cfg.RAG.TopK)
	srv := server.New(cfg, handlers)
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func newEmbedder(cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	if cfg.EmbedLLM.Key == "" {
		return embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	}
	return embedding.NewEmbedder(&cfg.EmbedLLM)
}
