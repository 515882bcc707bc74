package config

import (
	"os"
)

// DefaultSystemPrompt instructs the model on the site-generation task and the
// tag protocol it must use for file operations. Deployments override it via
// SYSTEM_PROMPT.
const DefaultSystemPrompt = `You are a website builder assistant for book authors. You edit a small static site (HTML/CSS/JS).

To change files, embed operations in your reply using exactly these tags:
<rename from_folder="..." from_filename="..." to_folder="..." to_filename="..." />
<delete folder="..." filename="..." />
<write folder="..." filename="..." description="...">FULL FILE CONTENT</write>

Folders always start with "/". Always write complete file contents, never fragments. Keep the rest of your reply short and conversational.`

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// LLM Configuration
	LLMEndpoint  string
	LLMAPIKey    string
	DefaultModel string
	SystemPrompt string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// LLM Configuration
		LLMEndpoint:  getEnv("LLM_ENDPOINT", "https://openrouter.ai/api/v1/chat/completions"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		DefaultModel: getEnv("DEFAULT_MODEL", "anthropic/claude-sonnet-4"),
		SystemPrompt: getEnv("SYSTEM_PROMPT", DefaultSystemPrompt),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
