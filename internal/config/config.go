package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	LogLevel  string
	LogFormat string

	MouserAPIBaseURL  string
	MouserAPIKey      string
	MouserRateLimitPS int
	MouserTimeoutMs   int
	MouserMaxResults  int

	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout int

	AllowObsolete bool
	InStockOnly   bool
	RankTopN      int
}

var (
	reMouserKey = regexp.MustCompile(`MouserAPIkey=([^\s]+)`)
	reGeminiKey = regexp.MustCompile(`GeminiKey=([^\s]+)`)
)

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "bompick.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MouserAPIBaseURL:  getEnv("MOUSER_API_BASE_URL", "https://api.mouser.com/api/v1"),
		MouserAPIKey:      getEnv("MOUSER_API_KEY", ""),
		MouserRateLimitPS: getEnvInt("MOUSER_RATE_LIMIT_RPS", 2),
		MouserTimeoutMs:   getEnvInt("MOUSER_TIMEOUT_MS", 30000),
		MouserMaxResults:  getEnvInt("MOUSER_MAX_RESULTS", 50),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-pro"),
		GeminiTimeout: getEnvInt("GEMINI_TIMEOUT_MS", 30000),

		AllowObsolete: getEnvBool("RANK_ALLOW_OBSOLETE", false),
		InStockOnly:   getEnvBool("RANK_IN_STOCK_ONLY", false),
		RankTopN:      getEnvInt("RANK_TOP_N", 10),
	}

	// keys.txt is the legacy credential file; env vars win when both exist.
	if cfg.MouserAPIKey == "" || cfg.GeminiAPIKey == "" {
		mouser, gemini := loadKeysFile(getEnv("KEYS_FILE", filepath.Join(cwd, "keys.txt")))
		if cfg.MouserAPIKey == "" {
			cfg.MouserAPIKey = mouser
		}
		if cfg.GeminiAPIKey == "" {
			cfg.GeminiAPIKey = gemini
		}
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required config: %s", name)
	}
	return nil
}

func loadKeysFile(path string) (mouser, gemini string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", ""
	}
	if m := reMouserKey.FindSubmatch(content); m != nil {
		mouser = strings.TrimSpace(string(m[1]))
	}
	if m := reGeminiKey.FindSubmatch(content); m != nil {
		gemini = strings.TrimSpace(string(m[1]))
	}
	return mouser, gemini
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	switch value {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
