package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	InferLLM LLMConfig      `yaml:"inference_llm"`
	RAG      RAGConfig      `yaml:"rag"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	UploadDir string `yaml:"upload_dir"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RAGConfig struct {
	DBPath       string `yaml:"db_path"`
	Collection   string `yaml:"collection"`
	InMemory     bool   `yaml:"in_memory"`
	Dimension    int    `yaml:"dimension"`
	TopK         int    `yaml:"top_k"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	CorpusLimit  int    `yaml:"corpus_limit"`
}

const (
	defaultPort         = "8000"
	defaultUploadDir    = "./uploaded_rfps"
	defaultDBPath       = "./proposaldb"
	defaultCollection   = "proposals"
	defaultDimension    = 768
	defaultTopK         = 2
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 500  // bytes
	defaultCorpusLimit  = 20
	defaultLLMTimeout   = 60 // seconds
)

// LoadConfig reads the YAML config and applies environment overrides for
// secrets. A missing .env file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENROUTER_KEY"); v != "" {
		c.EmbedLLM.Key = v
		c.InferLLM.Key = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = defaultUploadDir
	}
	if c.RAG.DBPath == "" {
		c.RAG.DBPath = defaultDBPath
	}
	if c.RAG.Collection == "" {
		c.RAG.Collection = defaultCollection
	}
	if c.RAG.Dimension == 0 {
		c.RAG.Dimension = defaultDimension
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.CorpusLimit == 0 {
		c.RAG.CorpusLimit = defaultCorpusLimit
	}
	if c.EmbedLLM.TimeoutSeconds == 0 {
		c.EmbedLLM.TimeoutSeconds = defaultLLMTimeout
	}
	if c.InferLLM.TimeoutSeconds == 0 {
		c.InferLLM.TimeoutSeconds = defaultLLMTimeout
	}
}
