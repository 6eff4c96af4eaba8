package cli

import (
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	CookieFile string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("SURVEYID_SERVER", "http://localhost:8080"),
		CookieFile: getEnvOrDefault("SURVEYID_COOKIE_FILE", defaultCookieFile()),
		Output:     "text",
		Verbose:    false,
	}
}

func defaultCookieFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".surveyid/cookies"
	}
	return filepath.Join(home, ".surveyid", "cookies")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
