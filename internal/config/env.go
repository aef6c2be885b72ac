package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the Gemini API key
const APIKeyEnv = "GEMINI_API_KEY"

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// LoadAPIKey returns the Gemini API key after loading .env files.
// An empty result is not an error here; the client reports it on first use.
func LoadAPIKey(files ...string) string {
	LoadDotEnv(files...)
	return strings.TrimSpace(os.Getenv(APIKeyEnv))
}
