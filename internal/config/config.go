package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string
	UploadPath string
	OutputDir  string

	Renderer        string
	ChromeBin       string
	ChromeNoSandbox bool

	CaptionBackend string
	OllamaHost     string
	OllamaModel    string
	ClaudeAPIKey   string
	ClaudeModel    string

	Institution   string
	School        string
	Department    string
	WatermarkText string

	AutosaveInterval time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are used for variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	department := getEnv("DEPARTMENT", "Department of AI, ML & Data Science")
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		DBPath:     getEnv("DB_PATH", "data/activity_reports.db"),
		UploadPath: getEnv("UPLOAD_PATH", "data/uploads"),
		OutputDir:  getEnv("OUTPUT_DIR", "data/reports"),

		Renderer:        getEnv("PDF_RENDERER", "chromium"),
		ChromeBin:       getEnv("CHROME_BIN", ""),
		ChromeNoSandbox: getBool("CHROME_NO_SANDBOX", false),

		CaptionBackend: getEnv("CAPTION_BACKEND", "none"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-3-5-haiku-20241022"),

		Institution:   getEnv("INSTITUTION", "Christ (Deemed to be University)"),
		School:        getEnv("SCHOOL", "School of Engineering and Technology"),
		Department:    department,
		WatermarkText: getEnv("WATERMARK_TEXT", department),

		AutosaveInterval: getDuration("AUTOSAVE_INTERVAL", 30*time.Second),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 28),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return n
}

func getBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}

// getDuration accepts Go durations ("45s", "2m") or a plain number of seconds.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}
