package config

import "os"

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// Vision reads the farmer's photo once per session (latency matters)
	Vision string `json:"vision"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey          string       `json:"-"` // Never serialize
	Models          GeminiModels `json:"models"`
	TimeoutMS       int          `json:"timeoutMs"`
	MaxRetries      int          `json:"maxRetries"`
	MaxObservations int          `json:"maxObservations"`
	Temperature     float32      `json:"temperature"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Models: GeminiModels{
			Vision: getEnvOrDefault("GEMINI_MODEL_VISION", "gemini-2.5-flash"),
		},
		TimeoutMS:       getEnvInt("GEMINI_TIMEOUT_MS", 20000),
		MaxRetries:      3,
		MaxObservations: 4,
		Temperature:     0.2,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
