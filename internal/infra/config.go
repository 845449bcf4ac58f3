package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StoragePath string
	GeoIPDBPath string

	// Upstream generation provider.
	ProviderBaseURL           string
	ProviderAPIKey            string
	ProviderGeneratePath      string
	ProviderStatusPath        string
	ProviderStatusQueryParam  string
	ProviderDefaultModel      string
	ProviderConnectTimeout    time.Duration
	ProviderReadTimeout       time.Duration
	ProviderStatusReadTimeout time.Duration
	ProviderSubmitAttempts    int
	ProviderStatusAttempts    int

	// Polling loop.
	PollInterval time.Duration
	PollMaxWait  time.Duration

	// Text-planning collaborator.
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIChatModel       string
	OpenAITranscribeModel string

	// Assembly.
	FFmpegBin  string
	FFprobeBin string
	StitchMode string

	// Quota and rate limiting.
	FreeGenerationLimit int
	RateLimitPerMin     int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		ProviderBaseURL:           getEnv("AIML_BASE_URL", "https://api.aimlapi.com/v2"),
		ProviderAPIKey:            os.Getenv("AIML_API_KEY"),
		ProviderGeneratePath:      getEnv("AIML_GENERATE_PATH", "/generate/video/alibaba/generation"),
		ProviderStatusPath:        getEnv("AIML_STATUS_PATH", "/generate/video/alibaba/generation"),
		ProviderStatusQueryParam:  getEnv("AIML_STATUS_QUERY_PARAM", "generation_id"),
		ProviderDefaultModel:      getEnv("AIML_DEFAULT_MODEL", "alibaba/wan2.1-t2v-turbo"),
		ProviderConnectTimeout:    time.Second * time.Duration(getEnvInt("AIML_CONNECT_TIMEOUT_SECONDS", 10)),
		ProviderReadTimeout:       time.Second * time.Duration(getEnvInt("AIML_READ_TIMEOUT_SECONDS", 45)),
		ProviderStatusReadTimeout: time.Second * time.Duration(getEnvInt("AIML_STATUS_READ_TIMEOUT_SECONDS", 30)),
		ProviderSubmitAttempts:    getEnvInt("AIML_POST_ATTEMPTS", 2),
		ProviderStatusAttempts:    getEnvInt("AIML_STATUS_ATTEMPTS", 2),

		PollInterval: time.Second * time.Duration(getEnvInt("AIML_POLL_INTERVAL_SECONDS", 5)),
		PollMaxWait:  time.Second * time.Duration(getEnvInt("AIML_MAX_WAIT_SECONDS", 300)),

		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAITranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),

		FFmpegBin:  getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin: getEnv("FFPROBE_BIN", "ffprobe"),
		StitchMode: getEnv("STITCH_MODE", "crossfade"),

		FreeGenerationLimit: getEnvInt("FREE_GENERATION_LIMIT", 3),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 1800)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.ProviderBaseURL == "" {
		return nil, fmt.Errorf("AIML_BASE_URL is required")
	}

	if cfg.PollInterval <= 0 || cfg.PollMaxWait <= 0 {
		return nil, fmt.Errorf("poll interval and max wait must be positive")
	}

	switch cfg.StitchMode {
	case "crossfade", "seamless":
	default:
		return nil, fmt.Errorf("STITCH_MODE must be crossfade or seamless, got %q", cfg.StitchMode)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
