package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server settings read from the environment
type Config struct {
	MongoURI      string
	MongoDB       string
	RedisURI      string
	HTTPPort      string
	CORSOrigins   []string
	LogLevel      string
	KnowledgeDir  string
	CatalogSource string // "embedded" or "mongo"
	PublicBaseURL string // prefix for photo URLs handed to clients

	MinQuestions int
	MaxQuestions int // 0 uses the policy value
	MaxItems     int
	MaxPaidRatio float64

	VisionCacheTTL time.Duration
	AuditTimeout   time.Duration
	ReadTimeout    time.Duration // whole vision read, retries included
	MaxUploadBytes int64
}

// Load reads the server configuration
func Load() *Config {
	return &Config{
		MongoURI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnvOrDefault("MONGO_DB", "photodoctor"),
		RedisURI:      getEnvOrDefault("REDIS_URI", "redis://localhost:6379"),
		HTTPPort:      getEnvOrDefault("PORT", "8080"),
		CORSOrigins:   splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		KnowledgeDir:  os.Getenv("KNOWLEDGE_DIR"),
		CatalogSource: getEnvOrDefault("CATALOG_SOURCE", "embedded"),
		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),

		MinQuestions: getEnvInt("MIN_QUESTIONS", 4),
		MaxQuestions: getEnvInt("MAX_QUESTIONS", 8),
		MaxItems:     getEnvInt("MAX_RECOMMENDATIONS", 3),
		MaxPaidRatio: getEnvFloat("MAX_PAID_RATIO", 0.33),

		VisionCacheTTL: getEnvDuration("VISION_CACHE_TTL", 24*time.Hour),
		AuditTimeout:   getEnvDuration("AUDIT_TIMEOUT", 5*time.Second),
		ReadTimeout:    getEnvDuration("VISION_READ_TIMEOUT", 90*time.Second),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
	}
}

// UseMongoCatalog reports whether the product catalog is read from MongoDB
func (c *Config) UseMongoCatalog() bool {
	return strings.EqualFold(c.CatalogSource, "mongo")
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
