package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Upload modes.
const (
	UploadModeURL    = "url"
	UploadModeInline = "inline"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	LogLevel    string
	Port        string
	APIURL      string
	APIKey      string
	DatabaseURL string

	MediaRoot      string
	PublicBaseURL  string
	UploadMode     string
	PromptsFile    string
	MaxUploadBytes int64

	SubmitTimeout time.Duration
	FetchTimeout  time.Duration
	PollTimeout   time.Duration
	PollInterval  time.Duration

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           strings.ToLower(os.Getenv("LOG_LEVEL")),
		Port:               getEnv("PORT", "8080"),
		APIURL:             strings.TrimSpace(os.Getenv("API_URL")),
		APIKey:             strings.TrimSpace(os.Getenv("API_KEY")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MediaRoot:          getEnv("MEDIA_ROOT", "./media"),
		PublicBaseURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/"),
		UploadMode:         strings.ToLower(getEnv("UPLOAD_MODE", UploadModeURL)),
		PromptsFile:        strings.TrimSpace(os.Getenv("PROMPTS_FILE")),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 32<<20)),
		SubmitTimeout:      time.Second * time.Duration(getEnvInt("UPSTREAM_SUBMIT_TIMEOUT_SECONDS", 180)),
		FetchTimeout:       time.Second * time.Duration(getEnvInt("UPSTREAM_FETCH_TIMEOUT_SECONDS", 60)),
		PollTimeout:        time.Second * time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", 180)),
		PollInterval:       getEnvDuration("POLL_INTERVAL", time.Second),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 240)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("API_URL is required")
	}
	if cfg.APIKey == "" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("API_KEY is required when DATABASE_URL is not set")
	}
	if cfg.UploadMode != UploadModeURL && cfg.UploadMode != UploadModeInline {
		return nil, fmt.Errorf("UPLOAD_MODE must be %q or %q, got %q", UploadModeURL, UploadModeInline, cfg.UploadMode)
	}
	if cfg.PublicBaseURL != "" {
		if u, err := url.Parse(cfg.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("PUBLIC_BASE_URL must be an absolute url, got %q", cfg.PublicBaseURL)
		}
	}
	if cfg.PollInterval <= 0 || cfg.PollTimeout <= 0 {
		return nil, fmt.Errorf("POLL_TIMEOUT_SECONDS and POLL_INTERVAL must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
