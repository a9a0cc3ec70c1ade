package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Persona         PersonaConfig         `mapstructure:"persona"`
	Models          ModelsConfig          `mapstructure:"models"`
	Storage         StorageConfig         `mapstructure:"storage"`
	Cache           CacheConfig           `mapstructure:"cache"`
	Personalization PersonalizationConfig `mapstructure:"personalization"`
	Conversation    ConversationConfig    `mapstructure:"conversation"`
	Matcher         MatcherConfig         `mapstructure:"matcher"`
	Media           MediaConfig           `mapstructure:"media"`
	RateLimit       RateLimitConfig       `mapstructure:"rate_limit"`
	Context         ContextConfig         `mapstructure:"context"`
	Logging         LoggingConfig         `mapstructure:"logging"`
	Monitoring      MonitoringConfig      `mapstructure:"monitoring"`
	I18n            I18nConfig            `mapstructure:"i18n"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	AdminToken     string        `mapstructure:"admin_token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type PersonaConfig struct {
	Name         string `mapstructure:"name"`
	TimeZone     string `mapstructure:"timezone"`
	DefaultMood  string `mapstructure:"default_mood"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

type ModelsConfig struct {
	Default   string          `mapstructure:"default"`
	Endpoints []ModelEndpoint `mapstructure:"endpoints"`
}

type ModelEndpoint struct {
	Name        string      `mapstructure:"name"`
	DisplayName string      `mapstructure:"display_name"`
	BaseURL     string      `mapstructure:"base_url"`
	APIKey      string      `mapstructure:"api_key"`
	Models      []ModelInfo `mapstructure:"models"`
}

type ModelInfo struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type StorageConfig struct {
	Type     string         `mapstructure:"type"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Memory   MemoryConfig   `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig points at the hosted Supabase database
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type MemoryConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type PersonalizationConfig struct {
	ContextTTL         time.Duration `mapstructure:"context_ttl"`
	MaxContexts        int           `mapstructure:"max_contexts"`
	SkipAPIProbability float64       `mapstructure:"skip_api_probability"`
	EmojiProbability   float64       `mapstructure:"emoji_probability"`
	MaxFavoriteEmojis  int           `mapstructure:"max_favorite_emojis"`
	MaxCommonQuestions int           `mapstructure:"max_common_questions"`
}

type ConversationConfig struct {
	ComebackAfter        time.Duration `mapstructure:"comeback_after"`
	IdleExpiry           time.Duration `mapstructure:"idle_expiry"`
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	GoodbyeAfterMessages int           `mapstructure:"goodbye_after_messages"`
}

type MatcherConfig struct {
	HistoryWindow    int     `mapstructure:"history_window"`
	RepeatTurns      int     `mapstructure:"repeat_turns"`
	LongConversation int     `mapstructure:"long_conversation"`
	BreakProbability float64 `mapstructure:"break_probability"`
}

type MediaConfig struct {
	Images          []string `mapstructure:"images"`
	Audio           []string `mapstructure:"audio"`
	ProactiveChance float64  `mapstructure:"proactive_chance"`
	MinMessages     int      `mapstructure:"min_messages"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type ContextConfig struct {
	MaxMessages int `mapstructure:"max_messages"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
	Directory       string   `mapstructure:"directory"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout", 45*time.Second)

	v.SetDefault("persona.name", "Kruthika")
	v.SetDefault("persona.timezone", "Asia/Kolkata")
	v.SetDefault("persona.default_mood", "happy")
	v.SetDefault("persona.system_prompt", "You are Kruthika, a warm and playful girl from Bangalore chatting on WhatsApp. Reply in short casual messages, mixing Hindi or Kannada when the user does.")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.memory.default_expiration", 24*time.Hour)
	v.SetDefault("storage.memory.cleanup_interval", 10*time.Minute)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.max_size", 100)

	v.SetDefault("personalization.context_ttl", 2*time.Hour)
	v.SetDefault("personalization.max_contexts", 1000)
	v.SetDefault("personalization.skip_api_probability", 0.7)
	v.SetDefault("personalization.emoji_probability", 0.3)
	v.SetDefault("personalization.max_favorite_emojis", 10)
	v.SetDefault("personalization.max_common_questions", 5)

	v.SetDefault("conversation.comeback_after", 5*time.Minute)
	v.SetDefault("conversation.idle_expiry", time.Hour)
	v.SetDefault("conversation.sweep_interval", time.Hour)
	v.SetDefault("conversation.goodbye_after_messages", 30)

	v.SetDefault("matcher.history_window", 10)
	v.SetDefault("matcher.repeat_turns", 3)
	v.SetDefault("matcher.long_conversation", 15)
	v.SetDefault("matcher.break_probability", 0.3)

	v.SetDefault("media.proactive_chance", 0.08)
	v.SetDefault("media.min_messages", 3)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("context.max_messages", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("monitoring.metrics.enabled", true)
	v.SetDefault("monitoring.metrics.port", 9090)
	v.SetDefault("monitoring.metrics.path", "/metrics")

	v.SetDefault("i18n.default_language", "en")
	v.SetDefault("i18n.languages", []string{"en", "hi", "kn"})
}

// LoadConfig loads configuration from file and environment variables. A missing
// file is fine: defaults and the environment still apply.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	// Enable environment variable substitution
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.admin_token", "ADMIN_TOKEN")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	v.BindEnv("storage.redis.db", "REDIS_DB")
	v.BindEnv("storage.postgres.url", "DATABASE_URL", "SUPABASE_DB_URL")
	v.BindEnv("logging.level", "LOG_LEVEL")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Endpoint secrets may reference the environment, e.g. ${AI_API_KEY}
	for i := range config.Models.Endpoints {
		config.Models.Endpoints[i].APIKey = os.ExpandEnv(config.Models.Endpoints[i].APIKey)
		config.Models.Endpoints[i].BaseURL = os.ExpandEnv(config.Models.Endpoints[i].BaseURL)
	}

	// Handle Redis address special case
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisPort := os.Getenv("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		config.Storage.Redis.Addr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	// A single OpenAI-compatible endpoint can come entirely from the environment
	if baseURL := os.Getenv("AI_BASE_URL"); baseURL != "" {
		modelID := os.Getenv("AI_MODEL")
		if modelID == "" {
			modelID = "gpt-4o-mini"
		}
		config.Models.Endpoints = append(config.Models.Endpoints, ModelEndpoint{
			Name:        "env",
			DisplayName: "env",
			BaseURL:     baseURL,
			APIKey:      os.Getenv("AI_API_KEY"),
			Models:      []ModelInfo{{ID: modelID, Name: modelID, MaxTokens: 256}},
		})
		if config.Models.Default == "" {
			config.Models.Default = modelID
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func validateProbability(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, p)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Cache.Enabled && cfg.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max_size must be positive")
	}
	if cfg.Personalization.MaxContexts <= 0 {
		return fmt.Errorf("personalization max_contexts must be positive")
	}
	for name, p := range map[string]float64{
		"personalization.skip_api_probability": cfg.Personalization.SkipAPIProbability,
		"personalization.emoji_probability":    cfg.Personalization.EmojiProbability,
		"matcher.break_probability":            cfg.Matcher.BreakProbability,
		"media.proactive_chance":               cfg.Media.ProactiveChance,
	} {
		if err := validateProbability(name, p); err != nil {
			return err
		}
	}
	switch cfg.Storage.Type {
	case "memory":
	case "redis":
		if cfg.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis storage requires storage.redis.addr")
		}
	case "postgres":
		if cfg.Storage.Postgres.URL == "" {
			return fmt.Errorf("postgres storage requires storage.postgres.url")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if _, err := time.LoadLocation(cfg.Persona.TimeZone); err != nil {
		return fmt.Errorf("invalid persona timezone %q: %w", cfg.Persona.TimeZone, err)
	}
	return nil
}

// Location returns the persona's time zone, UTC when it cannot be loaded
func (p PersonaConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
