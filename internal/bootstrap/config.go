package bootstrap

import (
	"os"
	"strconv"
	"time"

	"github.com/eleven-am/video-search/internal/search"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string
	LogFormat  string

	DatabaseDriver string
	DatabaseDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	IndexBackend        string
	IndexExactThreshold int
	VectorDimension     int

	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	QdrantCollection string

	PgvectorDSN string

	Search search.Config
}

// LoadConfig reads settings from the environment, after merging a .env file
// from the working directory when one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	defaults := search.DefaultConfig()
	databaseDSN := getEnv("DATABASE_DSN", "")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:    databaseDSN,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),

		IndexBackend:        getEnv("INDEX_BACKEND", "memory"),
		IndexExactThreshold: getEnvInt("INDEX_EXACT_THRESHOLD", 1000),
		VectorDimension:     getEnvInt("VECTOR_DIMENSION", 2048),

		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "frames"),

		PgvectorDSN: getEnv("PGVECTOR_DSN", databaseDSN),

		Search: search.Config{
			MinMatches:          getEnvInt("MIN_MATCHES", defaults.MinMatches),
			SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", defaults.SimilarityThreshold),
			PerFrameK:           getEnvInt("PER_FRAME_K", defaults.PerFrameK),
			OffsetTolerance:     getEnvFloat("OFFSET_TOLERANCE", defaults.OffsetTolerance),
			ResultLimit:         getEnvInt("RESULT_LIMIT", defaults.ResultLimit),
			MaxCandidates:       getEnvInt("MAX_CANDIDATES", defaults.MaxCandidates),
			ConfidenceScale:     getEnvFloat("CONFIDENCE_SCALE", defaults.ConfidenceScale),
			QueryWorkers:        getEnvInt("QUERY_WORKERS", defaults.QueryWorkers),
			IngestWorkers:       getEnvInt("INGEST_WORKERS", defaults.IngestWorkers),
			MaxFramesPerVideo:   getEnvInt("MAX_FRAMES_PER_VIDEO", defaults.MaxFramesPerVideo),
			MaxDuration:         getEnvFloat("MAX_DURATION", defaults.MaxDuration),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
