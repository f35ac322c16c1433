package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Port               string
	CORSAllowedOrigins []string

	DatabaseURL string
	SslCertPath string
	IndexClass  string

	ConversationBackend  string
	VectorBackend        string
	SerializeUserAppends bool

	AIAPIKey      string
	UseMockLLM    bool
	CondenseModel string
	QAModel       string
	EmbedModel    string
	EmbedDim      int
	Temperature   float64

	NumSources       int
	MaxHistoryLength int
	Verbose          bool
	LLMTimeout       time.Duration
	RetrievalTimeout time.Duration

	JWTSecret         string
	AuthUsername      string
	AuthPassword      string
	AccessTokenExpiry time.Duration

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string

	IngestTargetTokens  int
	IngestOverlapTokens int
	IngestBatchSize     int
}

// LoadConfig loads the environment (and an optional .env file) into a Config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		IndexClass:  getEnv("INDEX_CLASS_NAME", "document_pages"),

		ConversationBackend:  getEnv("CONVERSATION_BACKEND", BackendMemory),
		VectorBackend:        getEnv("VECTOR_BACKEND", BackendPostgres),
		SerializeUserAppends: getEnvBool("SERIALIZE_USER_APPENDS", false),

		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		UseMockLLM:    getEnvBool("USE_MOCK_LLM", false),
		CondenseModel: getEnv("CONDENSE_MODEL", "gemini-1.5-flash"),
		QAModel:       getEnv("QA_MODEL", "gemini-1.5-flash"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:      getEnvInt("EMBED_DIM", 768),
		Temperature:   getEnvFloat("TEMPERATURE", 0),

		NumSources:       getEnvInt("NUM_SOURCES", 4),
		MaxHistoryLength: getEnvInt("MAX_HISTORY_LENGTH", 4),
		Verbose:          getEnvBool("VERBOSE", false),
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		RetrievalTimeout: getEnvDuration("RETRIEVAL_TIMEOUT", 15*time.Second),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AuthUsername:      getEnv("AUTH_USERNAME", ""),
		AuthPassword:      getEnv("AUTH_PASSWORD", ""),
		AccessTokenExpiry: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),

		IngestTargetTokens:  getEnvInt("INGEST_TARGET_TOKENS", 0),
		IngestOverlapTokens: getEnvInt("INGEST_OVERLAP_TOKENS", 0),
		IngestBatchSize:     getEnvInt("INGEST_BATCH_SIZE", 16),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NeedsDatabase reports whether any configured backend talks to Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.ConversationBackend == BackendPostgres || c.VectorBackend == BackendPostgres
}

// Validate checks the combinations the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	for name, v := range map[string]string{"CONVERSATION_BACKEND": c.ConversationBackend, "VECTOR_BACKEND": c.VectorBackend} {
		if v != BackendMemory && v != BackendPostgres {
			errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", name, BackendMemory, BackendPostgres, v))
		}
	}
	if c.NeedsDatabase() && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if !c.UseMockLLM && c.AIAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY not set (or set USE_MOCK_LLM=true)"))
	}
	if c.EmbedDim <= 0 {
		errs = append(errs, errors.New("EMBED_DIM must be positive"))
	}
	if c.NumSources <= 0 {
		errs = append(errs, errors.New("NUM_SOURCES must be positive"))
	}
	if c.IngestBatchSize <= 0 {
		errs = append(errs, errors.New("INGEST_BATCH_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateAuth checks the settings needed to issue and verify tokens.
func (c *Config) ValidateAuth() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	if c.AuthUsername == "" || c.AuthPassword == "" {
		errs = append(errs, errors.New("AUTH_USERNAME and AUTH_PASSWORD must be set"))
	}
	return errors.Join(errs...)
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("env value is not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("env value is not a float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("env value is not a bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("env value is not a duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
