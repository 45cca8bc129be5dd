package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultLLMAPIURL      = "https://api.groq.com/openai/v1/chat/completions"
	defaultLLMModel       = "llama-3.3-70b-versatile"
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultDatabasePath   = "data/mathly.db"
	defaultProfilesTable  = "profiles"
	defaultAvatarBucket   = "avatars"
	defaultLLMTemperature = 0.3
	defaultLLMMaxTokens   = 1000
)

// Config holds the configuration for the application.
type Config struct {
	Environment  string `yaml:"environment" validate:"oneof=development production test"`
	LogLevel     string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Port         string `yaml:"port" validate:"required,numeric"`
	DatabasePath string `yaml:"database_path" validate:"required"`
	// CORSOrigins lists origins allowed to call the REST API. Empty allows all.
	CORSOrigins []string `yaml:"cors_origins"`

	LLM      LLMConfig      `yaml:"llm"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// LLMConfig configures the chat-completion endpoint used for solving.
// The API key is never read from the config file.
type LLMConfig struct {
	APIURL      string        `yaml:"api_url" validate:"required,url"`
	APIKey      string        `yaml:"-" validate:"required"`
	Model       string        `yaml:"model" validate:"required"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gt=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// GeminiConfig configures image text recognition. Recognition is disabled
// when APIKey is empty.
type GeminiConfig struct {
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`
}

// SupabaseConfig configures auth, profiles and avatar storage. The profile
// feature is disabled when URL or Key is empty.
type SupabaseConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	Key           string `yaml:"-"`
	JWTSecret     string `yaml:"-"`
	ProfilesTable string `yaml:"profiles_table"`
	AvatarBucket  string `yaml:"avatar_bucket"`
}

// TelegramConfig configures the chat bot front-end.
type TelegramConfig struct {
	BotToken       string  `yaml:"-"`
	WebhookURL     string  `yaml:"webhook_url" validate:"omitempty,url"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	AdminID        int64   `yaml:"admin_id"`
}

// Enabled reports whether the Gemini recognizer can be constructed.
func (g GeminiConfig) Enabled() bool { return g.APIKey != "" }

// Enabled reports whether the Supabase backend can be constructed.
func (s SupabaseConfig) Enabled() bool { return s.URL != "" && s.Key != "" }

// Enabled reports whether the Telegram bot can be constructed.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" }

var validate = validator.New()

// Default returns a Config populated with defaults. Secrets stay empty.
func Default() *Config {
	return &Config{
		Environment:  "development",
		LogLevel:     "info",
		Port:         "8080",
		DatabasePath: defaultDatabasePath,
		LLM: LLMConfig{
			APIURL:      defaultLLMAPIURL,
			Model:       defaultLLMModel,
			Temperature: defaultLLMTemperature,
			MaxTokens:   defaultLLMMaxTokens,
			Timeout:     60 * time.Second,
		},
		Gemini: GeminiConfig{Model: defaultGeminiModel},
		Supabase: SupabaseConfig{
			ProfilesTable: defaultProfilesTable,
			AvatarBucket:  defaultAvatarBucket,
		},
	}
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	return Load(os.Getenv("MATHLY_CONFIG"))
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY environment variable not set")
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}
	return cfg, nil
}

// LoadDatabasePath resolves only the database location. Maintenance
// commands use it so they run without model credentials.
func LoadDatabasePath(path string) (string, error) {
	cfg, err := read(path)
	if err != nil {
		return "", err
	}
	if cfg.DatabasePath == "" {
		return "", errors.New("database_path is empty")
	}
	return cfg.DatabasePath, nil
}

func read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Port, "PORT")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}

	setString(&cfg.LLM.APIURL, "LLM_API_URL")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		cfg.LLM.Temperature = f
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_MAX_TOKENS %q: %w", v, err)
		}
		cfg.LLM.MaxTokens = n
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_TIMEOUT %q: %w", v, err)
		}
		cfg.LLM.Timeout = d
	}

	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")

	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.Key, "SUPABASE_KEY")
	setString(&cfg.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&cfg.Supabase.ProfilesTable, "SUPABASE_PROFILES_TABLE")
	setString(&cfg.Supabase.AvatarBucket, "SUPABASE_AVATAR_BUCKET")

	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.WebhookURL, "TELEGRAM_WEBHOOK_URL")
	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
		}
		cfg.Telegram.AllowedUserIDs = ids
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", v, err)
		}
		cfg.Telegram.AdminID = id
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q validation", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
