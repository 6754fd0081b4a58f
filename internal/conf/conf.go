package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// Completion backend configuration
	Completion CompletionConfig

	// History configuration
	History HistoryConfig

	// Session configuration
	Session SessionConfig

	// Scheduled digest configuration (optional)
	Digest DigestConfig

	// Personas configuration (loaded from YAML)
	Personas *PersonasConfig

	// Default trigger words applied until a chat customizes its own
	DefaultTriggers []string

	// Chat notified when the bot starts (optional)
	OwnerChatID string

	// Debug mode
	Debug bool
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	Token       string
	PollTimeout int // long poll timeout in seconds
}

// CompletionConfig contains completion backend configuration
type CompletionConfig struct {
	Provider    string // "gemini" or "openai"
	APIKey      string
	BaseURL     string // openai only
	Model       string
	Timeout     time.Duration
	MaxAttempts int
}

// HistoryConfig contains history store configuration
type HistoryConfig struct {
	Dir         string
	MaxMessages int
	PromptLimit int    // messages of context included in prompts
	ArchivePath string // bulk archive export, optional
}

// SessionConfig contains session configuration
type SessionConfig struct {
	DBPath string
}

// DigestConfig contains scheduled digest configuration
type DigestConfig struct {
	CronSpec string
	ChatID   string
}

// Enabled reports whether the scheduled digest is configured
func (c *DigestConfig) Enabled() bool {
	return c.CronSpec != "" && c.ChatID != ""
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	sessionDBPath := os.Getenv("SESSION_DB_PATH")
	if sessionDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		sessionDBPath = filepath.Join(homeDir, ".companion-bot", "sessions.db")
	}

	provider := strings.ToLower(os.Getenv("COMPLETION_PROVIDER"))
	if provider == "" {
		provider = "gemini"
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if provider == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	historyDir := os.Getenv("HISTORY_DIR")
	if historyDir == "" {
		historyDir = "chat_history"
	}

	archivePath := os.Getenv("ARCHIVE_PATH")
	if archivePath == "" {
		if _, err := os.Stat("chat_export.json"); err == nil {
			archivePath = "chat_export.json"
		}
	}

	triggers := []string{"bot"}
	if val := os.Getenv("DEFAULT_TRIGGERS"); val != "" {
		triggers = nil
		for _, w := range strings.Split(val, ",") {
			if w = strings.TrimSpace(w); w != "" {
				triggers = append(triggers, w)
			}
		}
	}

	personas, err := LoadPersonasConfig(os.Getenv("PERSONAS_CONFIG_PATH"))
	if err != nil {
		fmt.Printf("[Config] Failed to load personas: %v, using defaults\n", err)
		personas = DefaultPersonasConfig()
	}

	return &Config{
		Telegram: TelegramConfig{
			Token:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			PollTimeout: envInt("POLL_TIMEOUT_SECONDS", 30),
		},
		Completion: CompletionConfig{
			Provider:    provider,
			APIKey:      apiKey,
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			Model:       os.Getenv("COMPLETION_MODEL"),
			Timeout:     time.Duration(envInt("COMPLETION_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxAttempts: envInt("COMPLETION_MAX_ATTEMPTS", 3),
		},
		History: HistoryConfig{
			Dir:         historyDir,
			MaxMessages: envInt("HISTORY_MAX_MESSAGES", 50),
			PromptLimit: envInt("PROMPT_HISTORY_LIMIT", 6),
			ArchivePath: archivePath,
		},
		Session: SessionConfig{
			DBPath: sessionDBPath,
		},
		Digest: DigestConfig{
			CronSpec: os.Getenv("SUMMARY_CRON"),
			ChatID:   os.Getenv("SUMMARY_CHAT_ID"),
		},
		Personas:        personas,
		DefaultTriggers: triggers,
		OwnerChatID:     os.Getenv("OWNER_CHAT_ID"),
		Debug:           os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	}
	if c.Completion.Provider != "gemini" && c.Completion.Provider != "openai" {
		return &ConfigError{Field: "COMPLETION_PROVIDER", Message: "must be gemini or openai"}
	}
	if c.Completion.APIKey == "" {
		field := "GEMINI_API_KEY"
		if c.Completion.Provider == "openai" {
			field = "OPENAI_API_KEY"
		}
		return &ConfigError{Field: field, Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func envInt(name string, def int) int {
	if val := os.Getenv(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
