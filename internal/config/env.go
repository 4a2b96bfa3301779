package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the process configuration assembled from the environment.
type Config struct {
	Host string
	Port string

	DB    DBConfig
	Redis RedisConfig
	NATS  NATSConfig

	JWTSecret string
	JWTTTL    time.Duration
	// CookieSecure marks the session cookie Secure; turn off only for plain-http development.
	CookieSecure bool
	CORSOrigins  string

	OpenAIKey     string
	OpenAIBaseURL string

	OpenRouterKey string
	ChatModel     string

	// AudioCacheBackend selects where narration audio is cached: "mysql" or "nats".
	AudioCacheBackend string

	LogLevel  string
	LogFormat string

	Narration NarrationConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	URL         string
	AudioBucket string
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Info().Msg(".env not found, using system environment")
	}
}

func GetEnv(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}

// Load reads the environment (after LoadEnv) and the optional narration TOML file.
func Load() (*Config, error) {
	cfg := &Config{
		Host: GetEnv("APP_HOST", ""),
		Port: GetEnv("APP_PORT", "8080"),
		DB: DBConfig{
			Host:     GetEnv("DB_HOST", "127.0.0.1"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     GetEnv("DB_NAME", "family_site"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:         GetEnv("NATS_URL", "nats://127.0.0.1:4222"),
			AudioBucket: GetEnv("NATS_AUDIO_BUCKET", "BLOG_AUDIO"),
		},
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            getEnvDuration("JWT_TTL", 24*time.Hour),
		CookieSecure:      GetEnv("COOKIE_SECURE", "true") != "false",
		CORSOrigins:       GetEnv("CORS_ORIGINS", "*"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     GetEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenRouterKey:     os.Getenv("OPEN_ROUTER_KEY"),
		ChatModel:         GetEnv("CHAT_MODEL", "openai/gpt-4.1-mini"),
		AudioCacheBackend: GetEnv("AUDIO_CACHE_BACKEND", "mysql"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFormat:         GetEnv("LOG_FORMAT", "json"),
		Narration:         DefaultNarration(),
	}

	cfg.Narration.Voice = GetEnv("TTS_VOICE", cfg.Narration.Voice)
	cfg.Narration.Model = GetEnv("TTS_MODEL", cfg.Narration.Model)
	cfg.Narration.Budget = Duration(getEnvDuration("NARRATION_BUDGET", cfg.Narration.Budget.Std()))

	if path := os.Getenv("NARRATION_CONFIG"); path != "" {
		if err := LoadNarrationFile(path, &cfg.Narration); err != nil {
			return nil, err
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.AudioCacheBackend {
	case "mysql", "nats":
	default:
		return nil, fmt.Errorf("unknown AUDIO_CACHE_BACKEND %q", cfg.AudioCacheBackend)
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
