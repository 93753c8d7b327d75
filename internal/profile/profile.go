package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server and pipeline.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the HTTP API
	Addr string
	// Port is the binding port for the HTTP API
	Port int
	// Data is the data directory
	Data string
	// DSN points to where jobpulse stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// IndexPath is the local vector index file. Only used with the sqlite
	// driver; the postgres driver keeps embeddings in pgvector.
	IndexPath string
	// Version is the current version of the server
	Version string

	// Embedding provider configuration (OpenAI-compatible API)
	EmbeddingAPIKey     string // JOBPULSE_EMBEDDING_API_KEY
	EmbeddingBaseURL    string // JOBPULSE_EMBEDDING_BASE_URL
	EmbeddingModel      string // JOBPULSE_EMBEDDING_MODEL (default: BAAI/bge-small-en-v1.5)
	EmbeddingDimensions int    // JOBPULSE_EMBEDDING_DIMENSIONS (default: 384)

	// LLM provider configuration (OpenAI-compatible API)
	LLMAPIKey    string // JOBPULSE_LLM_API_KEY
	LLMBaseURL   string // JOBPULSE_LLM_BASE_URL
	LLMModel     string // JOBPULSE_LLM_MODEL (default: meta-llama/Llama-3.1-8B-Instruct)
	LLMMaxTokens int    // JOBPULSE_LLM_MAX_TOKENS (default: 2048)

	// Sync configuration
	SyncBatchSize int // JOBPULSE_SYNC_BATCH_SIZE (default: 20)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// FromEnv loads configuration from JOBPULSE_* environment variables.
func (p *Profile) FromEnv() {
	p.EmbeddingAPIKey = os.Getenv("JOBPULSE_EMBEDDING_API_KEY")
	p.EmbeddingBaseURL = getEnvOrDefault("JOBPULSE_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingModel = getEnvOrDefault("JOBPULSE_EMBEDDING_MODEL", "BAAI/bge-small-en-v1.5")
	p.EmbeddingDimensions = getIntEnvOrDefault("JOBPULSE_EMBEDDING_DIMENSIONS", 384)

	p.LLMAPIKey = os.Getenv("JOBPULSE_LLM_API_KEY")
	p.LLMBaseURL = getEnvOrDefault("JOBPULSE_LLM_BASE_URL", "https://api.openai.com/v1")
	p.LLMModel = getEnvOrDefault("JOBPULSE_LLM_MODEL", "meta-llama/Llama-3.1-8B-Instruct")
	p.LLMMaxTokens = getIntEnvOrDefault("JOBPULSE_LLM_MAX_TOKENS", 2048)

	p.SyncBatchSize = getIntEnvOrDefault("JOBPULSE_SYNC_BATCH_SIZE", 20)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fails fast on missing required
// configuration. A missing credential is a startup error here, never a
// deferred runtime surprise.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", p.Driver)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("jobpulse_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}
	if p.IndexPath == "" {
		p.IndexPath = filepath.Join(dataDir, "vector_index.json")
	}

	if p.EmbeddingAPIKey == "" {
		return errors.New("embedding API key is required (JOBPULSE_EMBEDDING_API_KEY)")
	}
	if p.LLMAPIKey == "" {
		return errors.New("LLM API key is required (JOBPULSE_LLM_API_KEY)")
	}

	return nil
}
